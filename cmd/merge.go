package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"invitopia/internal/app"
	"invitopia/internal/guests"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [template-id]",
	Short: "Create one personalized template per guest",
	Long: `Reads a guest list and creates one copy of the template per guest.
Text content and image sources may use {{field}} placeholders, filled from
each guest row. {{template}} and {{n}} are always available.

Examples:
  invitopia merge 3f2a --csv guests.csv --where rsvp=yes --name "{{first}}'s invite"
  invitopia merge 3f2a --json export.json --data-path event.guests --dry-run
  invitopia merge 3f2a --source database --source-config '{"driver":"postgres","dsn":"...","query":"SELECT * FROM rsvp"}'`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := mergeJobFromFlags(cmd)
		if err != nil {
			return err
		}
		job.TemplateID = args[0]

		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			res, err := a.Guests.Run(ctx, job)
			if err != nil {
				return err
			}
			printMergeResult(res, job.DryRun)
			return nil
		})
	},
}

var mergeSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List guest list source types",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tLABEL\tOPTIONS")
		for _, spec := range guests.ListSources() {
			var opts []string
			for _, f := range spec.ConfigFields {
				name := f.Key
				if f.Required {
					name += "*"
				}
				opts = append(opts, name)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Type, spec.Label, strings.Join(opts, ", "))
		}
		return w.Flush()
	},
}

// mergeJobFromFlags maps the shortcut flags onto a merge job.
func mergeJobFromFlags(cmd *cobra.Command) (guests.MergeJob, error) {
	f := cmd.Flags()
	csvPath, _ := f.GetString("csv")
	jsonPath, _ := f.GetString("json")
	url, _ := f.GetString("url")
	sourceType, _ := f.GetString("source")
	rawCfg, _ := f.GetString("source-config")
	dataPath, _ := f.GetString("data-path")
	where, _ := f.GetStringArray("where")
	sortBy, _ := f.GetString("sort")
	limit, _ := f.GetInt("limit")

	var job guests.MergeJob
	job.DedupeKey, _ = f.GetString("dedupe")
	job.NamePattern, _ = f.GetString("name")
	job.DryRun, _ = f.GetBool("dry-run")
	job.SourceCfg = guests.SourceConfig{}

	set := 0
	for _, v := range []string{csvPath, jsonPath, url, sourceType} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return job, fmt.Errorf("pass exactly one of --csv, --json, --url or --source")
	}

	switch {
	case csvPath != "":
		job.SourceType = "csv_file"
		job.SourceCfg["filePath"] = csvPath
	case jsonPath != "":
		job.SourceType = "json_file"
		job.SourceCfg["filePath"] = jsonPath
	case url != "":
		job.SourceType = "http"
		job.SourceCfg["url"] = url
	default:
		job.SourceType = sourceType
	}
	if rawCfg != "" {
		if err := json.Unmarshal([]byte(rawCfg), &job.SourceCfg); err != nil {
			return job, fmt.Errorf("parse --source-config: %w", err)
		}
	}
	if dataPath != "" {
		job.SourceCfg["dataPath"] = dataPath
	}

	for _, w := range where {
		field, value, ok := strings.Cut(w, "=")
		if !ok || field == "" {
			return job, fmt.Errorf("--where expects field=value, got %q", w)
		}
		job.Transforms = append(job.Transforms, guests.TransformConfig{
			Type:   "filter",
			Config: map[string]any{"field": field, "op": "eq", "value": value},
		})
	}
	if sortBy != "" {
		dir := "asc"
		if strings.HasPrefix(sortBy, "-") {
			dir, sortBy = "desc", sortBy[1:]
		}
		job.Transforms = append(job.Transforms, guests.TransformConfig{
			Type:   "sort",
			Config: map[string]any{"field": sortBy, "direction": dir},
		})
	}
	if limit > 0 {
		job.Transforms = append(job.Transforms, guests.TransformConfig{
			Type:   "limit",
			Config: map[string]any{"count": float64(limit)},
		})
	}
	return job, nil
}

func printMergeResult(res *guests.MergeResult, dryRun bool) {
	verb := "CREATED"
	if dryRun {
		verb = "WOULD CREATE"
	}
	for i, name := range res.Names {
		id := ""
		if i < len(res.Created) {
			id = styled(idStyle, res.Created[i].ID) + " "
		}
		fmt.Printf("%s %s%q\n", verb, id, name)
	}
	fmt.Printf("%s %d read, %d merged in %s\n", styled(labelStyle, "guests:"), res.RowsRead, res.RowsMerged, res.Duration.Round(time.Millisecond))
	if len(res.MissingFields) > 0 {
		fmt.Fprintf(os.Stderr, "warning: fields missing from some guests: %s\n", strings.Join(res.MissingFields, ", "))
	}
}

func addMergeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("csv", "", "CSV guest list")
	f.String("json", "", "JSON guest list")
	f.String("url", "", "HTTP endpoint returning JSON guests")
	f.String("source", "", "any source type (see merge sources)")
	f.String("source-config", "", "source configuration as a JSON object")
	f.String("data-path", "", "dot path to the guest array in JSON input")
	f.StringArray("where", nil, "keep guests whose field equals value (field=value, repeatable)")
	f.String("sort", "", "sort by field, prefix with - for descending")
	f.Int("limit", 0, "merge at most this many guests")
	f.String("dedupe", "", "skip guests repeating this field")
	f.String("name", "", `name pattern for the copies (default "{{template}} #{{n}}")`)
	f.Bool("dry-run", false, "print the names without creating templates")
}

func init() {
	addMergeFlags(mergeCmd)
	mergeCmd.AddCommand(mergeSourcesCmd)
	rootCmd.AddCommand(mergeCmd)
}
