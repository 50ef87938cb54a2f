// Package eventbus dispatches entity mutation events from the wizard to
// whoever cares (typically a list controller refreshing itself, or the CLI
// printing the outcome). Handlers are matched by function signature.
package eventbus

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/serrors"
)

// EntityCreated is published after a successful create persistence call.
type EntityCreated struct {
	Resource string
	ID       int64
}

// EntityUpdated is published after a successful update persistence call.
type EntityUpdated struct {
	Resource string
	ID       int64
}

// EntityRemoved is published after a confirmed deactivate or delete.
type EntityRemoved struct {
	Resource string
	ID       int64
	Action   string
}

var ErrNoSubscribers = serrors.NewError("EVENTBUS_NO_SUBSCRIBERS", "no matching subscribers")

type EventBus interface {
	Publish(event any)
	Subscribe(handler any)
	Unsubscribe(handler any)
	Clear()
	SubscribersCount() int
}

type publisherImpl struct {
	mu          sync.RWMutex
	log         *logrus.Logger
	subscribers []any
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisherImpl{log: log}
}

// MatchSignature reports whether the handler is a single-argument function
// accepting the event's type (or an interface it implements).
func MatchSignature(handler any, event any) bool {
	t := reflect.TypeOf(handler)
	if t.Kind() != reflect.Func || t.NumIn() != 1 {
		return false
	}
	paramType := t.In(0)
	eventType := reflect.TypeOf(event)
	if event == nil {
		return false
	}
	if paramType.Kind() == reflect.Interface {
		return eventType.Implements(paramType)
	}
	return eventType.AssignableTo(paramType)
}

func (p *publisherImpl) Publish(event any) {
	p.mu.RLock()
	subscribers := append([]any(nil), p.subscribers...)
	p.mu.RUnlock()

	handled := false
	for _, handler := range subscribers {
		if !MatchSignature(handler, event) {
			continue
		}
		v := reflect.ValueOf(handler)
		func() {
			defer func() {
				if r := recover(); r != nil {
					if p.log != nil {
						p.log.Errorf("eventbus: handler %s panicked on %v: %v", v.Type().String(), event, r)
					}
				}
			}()
			v.Call([]reflect.Value{reflect.ValueOf(event)})
			handled = true
		}()
	}

	if !handled && p.log != nil {
		p.log.Warnf("eventbus.Publish: no matching subscribers for %T", event)
	}
}

func (p *publisherImpl) Subscribe(handler any) {
	if reflect.TypeOf(handler).Kind() != reflect.Func {
		panic("handler must be a function")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, handler)
}

func (p *publisherImpl) Unsubscribe(handler any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := reflect.ValueOf(handler).Pointer()
	for i, sub := range p.subscribers {
		if reflect.ValueOf(sub).Pointer() == target {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

func (p *publisherImpl) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = nil
}

func (p *publisherImpl) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}
