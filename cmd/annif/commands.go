package main

import (
	"fmt"

	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/spf13/cobra"
)

func infoCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the service banner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := s.client().Info(cmd.Context())
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", info.Title, info.Version)
			return nil
		},
	}
}

func projectsCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the available projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := s.client().Projects(cmd.Context())
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			for _, p := range projects {
				printProject(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func projectCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "project PROJECT_ID",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.client().Project(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printProject(cmd.OutOrStdout(), *p)
			return nil
		},
	}
}

func suggestCommand(s *settings) *cobra.Command {
	var (
		text      string
		limit     int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:     "suggest PROJECT_ID [FILE|-]",
		Aliases: []string{"analyze"},
		Short:   "Suggest subjects for a text",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, done, err := inputText(cmd, text, args[1:])
			if err != nil {
				return err
			}
			defer done()

			results, err := s.client().Suggest(cmd.Context(), args[0], in, suggestOptions(cmd, limit, threshold)...)
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printSuggestions(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to index instead of reading FILE or stdin")
	addSuggestFlags(cmd, &limit, &threshold)
	return cmd
}

func suggestBatchCommand(s *settings) *cobra.Command {
	var (
		limit     int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "suggest-batch PROJECT_ID FILE.json",
		Short: "Suggest subjects for a batch of documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(args[1])
			if err != nil {
				return err
			}
			results, err := s.client().SuggestBatch(cmd.Context(), args[0], docs, suggestOptions(cmd, limit, threshold)...)
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			for i, r := range results {
				id := r.DocumentID
				if id == "" {
					id = fmt.Sprintf("#%d", i+1)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Document %s\n", id)
				printSuggestions(cmd.OutOrStdout(), r.Results)
			}
			return nil
		},
	}
	addSuggestFlags(cmd, &limit, &threshold)
	return cmd
}

func learnCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "learn PROJECT_ID FILE.json",
		Short: "Train a project on documents with known subjects",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(args[1])
			if err != nil {
				return err
			}
			resp, err := s.client().Learn(cmd.Context(), args[0], docs)
			if err != nil {
				return err
			}
			if s.JSON {
				_, err := cmd.OutOrStdout().Write(resp.Body())
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "learned %d documents (status %d)\n", len(docs), resp.StatusCode())
			return nil
		},
	}
}

func detectLanguageCommand(s *settings) *cobra.Command {
	var (
		text      string
		languages []string
	)
	cmd := &cobra.Command{
		Use:   "detect-language [FILE|-]",
		Short: "Rank candidate languages for a text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, done, err := inputText(cmd, text, args)
			if err != nil {
				return err
			}
			defer done()

			out, err := s.client().DetectLanguage(cmd.Context(), in, languages)
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			for _, r := range out.Results {
				lang := r.Language
				if lang == "" {
					lang = "unknown"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f\n", lang, r.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to inspect instead of reading FILE or stdin")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "Candidate language codes, e.g. en,fi,sv")
	_ = cmd.MarkFlagRequired("languages")
	return cmd
}

func addSuggestFlags(cmd *cobra.Command, limit *int, threshold *float64) {
	cmd.Flags().IntVar(limit, "limit", 0, "Maximum number of suggestions")
	cmd.Flags().Float64Var(threshold, "threshold", 0, "Minimum score of a suggestion")
}

// suggestOptions forwards only the flags given on the command line.
func suggestOptions(cmd *cobra.Command, limit int, threshold float64) []annif.SuggestOption {
	var opts []annif.SuggestOption
	if cmd.Flags().Changed("limit") {
		opts = append(opts, annif.WithLimit(limit))
	}
	if cmd.Flags().Changed("threshold") {
		opts = append(opts, annif.WithThreshold(threshold))
	}
	return opts
}
