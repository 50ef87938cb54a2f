package main

import (
	"log"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/suyashkore/tms-console/pkg/commands"
	"github.com/suyashkore/tms-console/pkg/configuration"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()

	root := &cobra.Command{
		Use:           "console",
		Short:         "Admin console for the transport management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(commands.NewConsoleCommands()...)

	if err := root.Execute(); err != nil {
		conf.Logger().WithError(err).Error("command failed")
		log.Println(err)
		os.Exit(1)
	}
}
