package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings are the global flags, also readable from ANNIF_API_BASE and ANNIF_TIMEOUT.
type settings struct {
	APIBase string
	Timeout time.Duration
	JSON    bool
}

func rootCommand() *cobra.Command {
	s := &settings{}
	v := viper.New()
	v.SetEnvPrefix("annif")
	v.AutomaticEnv()
	v.SetDefault("api_base", annif.DefaultBaseURL)
	v.SetDefault("timeout", 30*time.Second)

	rootCmd := &cobra.Command{
		Use:           "annif",
		Short:         "Annif REST API client",
		Version:       annif.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&s.APIBase, "api-base", v.GetString("api_base"), "Annif API base URL")
	rootCmd.PersistentFlags().DurationVar(&s.Timeout, "timeout", v.GetDuration("timeout"), "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&s.JSON, "json", false, "Print responses as JSON")

	rootCmd.AddCommand(
		infoCommand(s),
		projectsCommand(s),
		projectCommand(s),
		suggestCommand(s),
		suggestBatchCommand(s),
		learnCommand(s),
		detectLanguageCommand(s),
	)
	return rootCmd
}

func (s *settings) client() *annif.Client {
	base := s.APIBase
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return annif.New(annif.WithBaseURL(base), annif.WithTimeout(s.Timeout))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProject(w io.Writer, p annif.Project) {
	fmt.Fprintf(w, "Project id: %-16s lang: %s  name: %s\n", p.ProjectID, p.Language, p.Name)
}

func printSuggestions(w io.Writer, results []annif.SuggestionResult) {
	for _, r := range results {
		fmt.Fprintf(w, "<%s>\t%.4f\t%s\n", r.URI, r.Score, r.Label)
	}
}

// inputText picks the text source: --text, then a file argument, then stdin.
// The returned close func must be called once the request is done.
func inputText(cmd *cobra.Command, inline string, args []string) (annif.Text, func(), error) {
	if cmd.Flags().Changed("text") {
		return annif.InlineText(inline), func() {}, nil
	}
	if len(args) == 0 || args[0] == "-" {
		return annif.StreamText(cmd.InOrStdin()), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return annif.Text{}, nil, fmt.Errorf("open input: %w", err)
	}
	return annif.StreamText(f), func() { f.Close() }, nil
}

// readDocuments accepts either {"documents": [...]} or a bare array.
func readDocuments(path string) ([]annif.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var docs []annif.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
		return docs, nil
	}

	var env struct {
		Documents []annif.Document `json:"documents"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return env.Documents, nil
}
