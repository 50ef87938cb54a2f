// Package commands declares the console's cobra commands. Every command
// resolves its entity schema from the registry, so adding an entity needs
// no command changes.
package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suyashkore/tms-console/modules"
	"github.com/suyashkore/tms-console/pkg/attachment"
	"github.com/suyashkore/tms-console/pkg/batch"
	"github.com/suyashkore/tms-console/pkg/configuration"
	"github.com/suyashkore/tms-console/pkg/gateway"
	"github.com/suyashkore/tms-console/pkg/listing"
	"github.com/suyashkore/tms-console/pkg/query"
	"github.com/suyashkore/tms-console/pkg/schema"
	"github.com/suyashkore/tms-console/pkg/serrors"
	"github.com/suyashkore/tms-console/pkg/wizard"
)

// NewConsoleCommands creates the entity workflow commands.
func NewConsoleCommands() []*cobra.Command {
	return []*cobra.Command{
		newResourcesCmd(),
		newListCmd(),
		newGetCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeactivateCmd(),
		newDeleteCmd(),
		newUploadCmd(),
		newTemplateCmd(),
		newExportCmd(),
		newImportCmd(),
		newStubCmd(),
	}
}

func resolveClient(resource string) (*gateway.Client, error) {
	registry := modules.Load()
	sch, ok := registry[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (known: %s)",
			resource, strings.Join(modules.Resources(registry), ", "))
	}
	return gateway.FromConfiguration(configuration.Use(), sch), nil
}

// parseFilters turns repeated key=value flags into a filter map.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}

func parseSort(raw string) (query.Sort, error) {
	if raw == "" {
		return query.Sort{}, nil
	}
	field, order, found := strings.Cut(raw, ":")
	if !found {
		order = "asc"
	}
	if order != "asc" && order != "desc" {
		return query.Sort{}, fmt.Errorf("invalid sort order %q, expected asc or desc", order)
	}
	return query.Sort{By: field, Order: order}, nil
}

// readDraft reads a JSON document from path, or stdin when path is "-".
func readDraft(path string, rec schema.Record) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("cannot read draft: %w", err)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return fmt.Errorf("draft is not valid JSON: %w", err)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printValidationErrors(out io.Writer, fields serrors.ValidationErrors) {
	for _, field := range fields.Fields() {
		for _, msg := range fields[field] {
			fmt.Fprintf(out, "  %s: %s\n", field, msg)
		}
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the registered entity resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range modules.Resources(modules.Load()) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		page     int
		perPage  int
		sortRaw  string
		filters  []string
		advanced []string
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records with filters, sort and pagination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			sort, err := parseSort(sortRaw)
			if err != nil {
				return err
			}
			columnFilters, err := parseFilters(filters)
			if err != nil {
				return err
			}
			advancedFilters, err := parseFilters(advanced)
			if err != nil {
				return err
			}

			ctrl := listing.New(client, configuration.Use().Logger(),
				listing.WithPagination(query.Pagination{Page: page, PerPage: perPage}),
				listing.WithSort(sort),
				listing.WithColumnFilters(columnFilters),
				listing.WithAdvancedFilters(advancedFilters),
			)
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range ctrl.Rows() {
				if err := printJSON(out, row); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "total: %d\n", ctrl.Total())
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")
	cmd.Flags().IntVar(&perPage, "per-page", configuration.Use().List.PageSize, "rows per page")
	cmd.Flags().StringVar(&sortRaw, "sort", "", "sort as field:asc or field:desc")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "column filter as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&advanced, "advanced", nil, "advanced filter as key=value (repeatable)")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			rec, err := client.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newCreateCmd() *cobra.Command {
	var draftPath string
	var skipPreview bool
	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a record from a JSON draft",
		Long:  "Validates the draft, previews it and submits it to the backend. The draft is read from --file, or stdin with --file -.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			wiz := wizard.NewCreate(client, configuration.Use().Logger())
			if err := readDraft(draftPath, wiz.Draft()); err != nil {
				return err
			}
			return runWizard(cmd, wiz, skipPreview)
		},
	}
	cmd.Flags().StringVarP(&draftPath, "file", "f", "-", "path to the JSON draft, - for stdin")
	cmd.Flags().BoolVar(&skipPreview, "skip-preview", false, "submit straight from the data step")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var draftPath string
	var skipPreview bool
	cmd := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Update a record by merging a JSON draft over the stored one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			wiz, err := wizard.NewEdit(cmd.Context(), client, id, configuration.Use().Logger())
			if err != nil {
				return err
			}
			if err := readDraft(draftPath, wiz.Draft()); err != nil {
				return err
			}
			return runWizard(cmd, wiz, skipPreview)
		},
	}
	cmd.Flags().StringVarP(&draftPath, "file", "f", "-", "path to the JSON draft, - for stdin")
	cmd.Flags().BoolVar(&skipPreview, "skip-preview", false, "submit straight from the data step")
	return cmd
}

// runWizard walks the Data -> Preview -> Confirmation flow (or the direct
// skip-preview submission) and reports the recorded outcome. A rejected
// draft or a failed persistence attempt exits non-zero.
func runWizard(cmd *cobra.Command, wiz *wizard.Controller, skipPreview bool) error {
	out := cmd.OutOrStdout()
	if skipPreview {
		if err := wiz.Submit(cmd.Context(), true); err != nil {
			if failure := serrors.From(err); failure != nil && failure.Kind == serrors.KindValidation {
				fmt.Fprintln(out, "draft is invalid:")
				printValidationErrors(out, failure.Fields)
			}
			return err
		}
	} else {
		if !wiz.HandlePreview() {
			fmt.Fprintln(out, "draft is invalid:")
			printValidationErrors(out, wiz.ValidationErrors())
			return fmt.Errorf("draft rejected by validation")
		}
		if err := wiz.Submit(cmd.Context(), false); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, wiz.ResponseMessage())
	if failure := wiz.ErrorResponse(); failure != nil {
		printValidationErrors(out, failure.Fields)
		return fmt.Errorf("backend rejected the record")
	}
	return printJSON(out, wiz.Draft())
}

func destructiveCmd(action listing.DestructiveAction, short string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   string(action) + " <resource> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctrl := listing.New(client, configuration.Use().Logger())
			ctrl.SetSelection([]int64{id})
			if !ctrl.RequestDestructive(action, id) {
				return fmt.Errorf("cannot %s %s %d", action, args[0], id)
			}
			if !yes && !confirm(cmd, fmt.Sprintf("%s %s %d?", action, args[0], id)) {
				ctrl.CancelDestructive()
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			if err := ctrl.ConfirmDestructive(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd %s %d\n", action, args[0], id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newDeactivateCmd() *cobra.Command {
	return destructiveCmd(listing.ActionDeactivate, "Deactivate a record after confirmation")
}

func newDeleteCmd() *cobra.Command {
	return destructiveCmd(listing.ActionDelete, "Delete a record after confirmation")
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <resource> <id> <field> <file>",
		Short: "Upload a document file against a persisted record",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if _, ok := client.Schema().Attachment(args[2]); !ok {
				return fmt.Errorf("%s has no attachment field %q", args[0], args[2])
			}
			f, err := os.Open(args[3])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			uploader := attachment.New(client)
			url, err := uploader.Upload(cmd.Context(), id, args[2], filepath.Base(args[3]), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template <resource>",
		Short: "Download the entity's import template spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			conf := configuration.Use()
			path, err := batch.NewTransfer(client, conf.DownloadDir, conf.Logger()).Template(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		sortRaw  string
		filters  []string
		advanced []string
	)
	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Export all rows matching the filters to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			sort, err := parseSort(sortRaw)
			if err != nil {
				return err
			}
			columnFilters, err := parseFilters(filters)
			if err != nil {
				return err
			}
			advancedFilters, err := parseFilters(advanced)
			if err != nil {
				return err
			}

			values := query.WithoutPagination(
				query.Compose(query.Pagination{}, sort, columnFilters, advancedFilters))
			conf := configuration.Use()
			path, err := batch.NewTransfer(client, conf.DownloadDir, conf.Logger()).Export(cmd.Context(), values)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortRaw, "sort", "", "sort as field:asc or field:desc")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "column filter as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&advanced, "advanced", nil, "advanced filter as key=value (repeatable)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <resource> <file>",
		Short: "Bulk import records from a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(args[0])
			if err != nil {
				return err
			}
			conf := configuration.Use()
			report, err := batch.NewTransfer(client, conf.DownloadDir, conf.Logger()).Import(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported: %d, failed: %d\n", report.Imported, report.Failed)
			for _, rowErr := range report.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", rowErr.Row, rowErr.Message)
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d row(s) rejected", report.Failed)
			}
			return nil
		},
	}
}
