package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dm/starsearch/internal/artifact"
	"github.com/dm/starsearch/internal/client"
	"github.com/dm/starsearch/internal/savedobject"
)

// objectKind is a saved-object command family. An empty objType covers
// every exportable type.
type objectKind struct {
	name    string
	objType string
	plural  string
}

var (
	kindSavedObject   = objectKind{name: "saved-object", plural: "saved objects"}
	kindDashboard     = objectKind{name: "dashboard", objType: "dashboard", plural: "dashboards"}
	kindVisualization = objectKind{name: "visualization", objType: "visualization", plural: "visualizations"}
	kindSearch        = objectKind{name: "search", objType: "search", plural: "saved searches"}
)

type objectDeleted struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

type exportSummary struct {
	Exported  int      `json:"exported"`
	Locations []string `json:"locations"`
	Truncated bool     `json:"truncated,omitempty"`
}

func newSavedObjectCmd(a *app, k objectKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.name,
		Short: fmt.Sprintf("List, export, import and delete %s", k.plural),
	}
	cmd.AddCommand(newObjectListCmd(a, k))
	cmd.AddCommand(newObjectExportCmd(a, k))
	cmd.AddCommand(newObjectImportCmd(a, k))
	cmd.AddCommand(newObjectDeleteCmd(a, k))
	return cmd
}

func (a *app) catalog(c client.ESClient) *savedobject.Catalog {
	return savedobject.NewCatalog(a.reader(c), c, a.objectTypes(), a.log)
}

func newObjectListCmd(a *app, k objectKind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", k.plural),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			items, err := a.catalog(c).List(cmd.Context(), k.objType)
			if err != nil {
				return err
			}
			return a.output(items, func() {
				if len(items) == 0 {
					fmt.Fprintf(a.out, "No %s found\n", k.plural)
					return
				}
				rows := make([][]string, len(items))
				for i, it := range items {
					rows[i] = []string{it.Type, it.ID, it.Title}
				}
				a.printTable([]string{"TYPE", "ID", "TITLE"}, rows, nil)
			})
		},
	}
}

func newObjectExportCmd(a *app, k objectKind) *cobra.Command {
	var (
		asJSON bool
		toDir  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: fmt.Sprintf("Export %s with their references and the index-pattern map", k.plural),
		Long: `Export saved objects as ndjson. The first line maps index-pattern ids to
their titles; each following line is one object with its references.
Query text and filters inside search sources are blanked.

--output accepts - for stdout, a file path, or s3://bucket/prefix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			exp := savedobject.NewExporter(a.reader(c), a.objectTypes(), a.log)
			stream, err := exp.Export(cmd.Context(), savedobject.Filter{IDs: args, Type: k.objType})
			if err != nil {
				return err
			}

			if toDir != "" {
				written, err := artifact.WriteObjects(cmd.Context(), artifact.NewDirStore(toDir, a.log), stream, asJSON)
				if err != nil {
					return err
				}
				return a.exportDone(stream, written)
			}

			loc, err := artifact.ParseLocation(output)
			if err != nil {
				return err
			}
			data, err := artifact.EncodeStream(stream, asJSON)
			if err != nil {
				return err
			}
			where, err := a.router().Write(cmd.Context(), loc, k.name, data)
			if err != nil {
				return err
			}
			if loc.Scheme == artifact.SchemeStdio {
				return nil
			}
			return a.exportDone(stream, []string{where})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write an indented JSON array instead of ndjson")
	cmd.Flags().StringVar(&toDir, "to-file", "", "write one file per object into this directory")
	cmd.Flags().Lookup("to-file").NoOptDefVal = "."
	cmd.Flags().StringVarP(&output, "output", "o", "-", "destination: - for stdout, a file path, or s3://bucket/prefix")
	cmd.MarkFlagsMutuallyExclusive("to-file", "output")
	return cmd
}

func (a *app) exportDone(s *savedobject.Stream, locations []string) error {
	sum := exportSummary{Exported: len(s.Records), Locations: locations, Truncated: s.Truncated}
	return a.output(sum, func() {
		a.printMessage(fmt.Sprintf("Exported %d objects", sum.Exported))
		for _, l := range locations {
			fmt.Fprintln(a.out, "  "+l)
		}
		if sum.Truncated {
			fmt.Fprintln(a.out, "warning: the saved-object read hit max_objects; the export is incomplete")
		}
	})
}

func newObjectImportCmd(a *app, k objectKind) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file|s3://bucket/key|->",
		Short: fmt.Sprintf("Import %s from an export stream", k.plural),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := artifact.ParseLocation(args[0])
			if err != nil {
				return err
			}
			c, _, _, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			data, err := a.router().Read(cmd.Context(), loc)
			if err != nil {
				return err
			}
			imp := savedobject.NewImporter(c, a.cfg.SavedObjects.Index, a.log)
			res, err := imp.Import(cmd.Context(), bytes.NewReader(data), savedobject.ImportOptions{Type: k.objType, DryRun: dryRun})
			if err != nil {
				return err
			}
			return a.output(res, func() { a.printImportResult(res) })
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the stream without writing")
	return cmd
}

func (a *app) printImportResult(res *savedobject.Result) {
	if len(res.Imported) > 0 {
		rows := make([][]string, len(res.Imported))
		for i, o := range res.Imported {
			result := "ok"
			if !o.Success {
				result = o.Error
			}
			rows[i] = []string{o.Type, o.ID, o.Title, strconv.Itoa(o.Status), result}
		}
		a.printTable([]string{"TYPE", "ID", "TITLE", "STATUS", "RESULT"}, rows, nil)
	}
	if len(res.Skipped) > 0 {
		rows := make([][]string, len(res.Skipped))
		for i, s := range res.Skipped {
			rows[i] = []string{strconv.Itoa(s.Line), dash(s.Type), dash(s.ID), s.Reason}
		}
		a.printTable([]string{"LINE", "TYPE", "ID", "SKIPPED"}, rows, nil)
	}
	a.printMessage(fmt.Sprintf("Imported %d of %d; %d skipped", res.Succeeded(), len(res.Imported), len(res.Skipped)))
}

func newObjectDeleteCmd(a *app, k objectKind) *cobra.Command {
	var yes bool
	use, nargs := "delete <id>", 1
	if k.objType == "" {
		use, nargs = "delete <type> <id>", 2
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Delete one of the %s", k.plural),
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, id := k.objType, args[0]
			if objType == "" {
				objType, id = args[0], args[1]
			}
			return a.deleteObject(cmd, objType, id, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) deleteObject(cmd *cobra.Command, objType, id string, yes bool) error {
	c, _, _, err := a.client(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.confirmDelete(objType, id, yes); err != nil {
		return err
	}
	if err := a.catalog(c).Delete(cmd.Context(), objType, id); err != nil {
		return err
	}
	res := objectDeleted{
		Success: true,
		Type:    objType,
		ID:      savedobject.LocalID(savedobject.DocID(objType, id)),
		Message: fmt.Sprintf("%s '%s' deleted", objType, id),
	}
	return a.output(res, func() { a.printMessage(res.Message) })
}

func newIndexPatternCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index-pattern",
		Short: "List and delete index patterns",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List index patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			items, err := a.catalog(c).IndexPatterns(cmd.Context())
			if err != nil {
				return err
			}
			return a.output(items, func() {
				if len(items) == 0 {
					fmt.Fprintln(a.out, "No index patterns found")
					return
				}
				rows := make([][]string, len(items))
				for i, it := range items {
					rows[i] = []string{it.ID, dash(it.Title)}
				}
				a.printTable([]string{"ID", "TITLE"}, rows, nil)
			})
		},
	})

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an index pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.deleteObject(cmd, savedobject.TypeIndexPattern, args[0], yes)
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.AddCommand(del)
	return cmd
}
