package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibzarain/redline/internal/config"
	"github.com/ibzarain/redline/internal/document"
	"github.com/ibzarain/redline/internal/engine"
	redlinemcp "github.com/ibzarain/redline/internal/mcp"
	"github.com/ibzarain/redline/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "redline",
		Short: "Scoped contract edits with reviewable diffs",
		Long:  "An edit engine that lets an agent propose, visualize, and conditionally commit changes to a contract document, with every mutation held as a reviewable redline.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Init(noColor)
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(demoCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg, err := config.Load(config.Home())
	if err != nil {
		ui.Logger.Warn("config unreadable, using defaults", "err", err)
		return config.DefaultConfig()
	}
	return cfg
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create REDLINE_HOME with a default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.Home()
			if err := config.Init(home, force); err != nil {
				return err
			}
			ui.Status(fmt.Sprintf("initialized %s", home))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinitialize an existing home")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Render a document with its current redline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.LoadFile(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			paras, err := doc.Paragraphs(ctx)
			if err != nil {
				return err
			}
			runs, err := doc.StyledRuns(ctx)
			if err != nil {
				return err
			}
			ui.RenderDocument(paras, runs)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the edit engine as MCP tools on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if docPath == "" {
				return fmt.Errorf("--doc is required")
			}
			doc, err := document.LoadFile(docPath)
			if err != nil {
				return err
			}
			session := engine.New(doc, loadConfig(), ui.Logger)
			server := redlinemcp.NewServer(session, buildVersion())
			ui.Logger.Info("serving redline tools", "doc", docPath)
			return server.Run(context.Background())
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "Document to edit (YAML or plain text)")
	return cmd
}

// demoDocument is a small sample contract exercising articles and
// numbered paragraphs.
var demoDocument = []document.Paragraph{
	{Text: "ARTICLE A-1 DEFINITIONS"},
	{Text: "except as expressly provided herein, capitalized terms have the meanings set forth below.", ListLabel: "1.1"},
	{Text: "the term of this agreement shall commence on the effective date.", ListLabel: "1.2"},
	{Text: "ARTICLE A-2 OBLIGATIONS"},
	{Text: "the contractor shall perform the services with reasonable care.", ListLabel: "2.1"},
}

func demoCmd() *cobra.Command {
	var review bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted edit against a sample contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc := document.FromParagraphs(demoDocument)
			session := engine.New(doc, loadConfig(), ui.Logger)

			session.BeginInstruction(`In paragraph 1.2, replace "shall commence" with "shall begin".`)
			if res := session.LocateArticle(ctx, "A-1"); !res.Success {
				return fmt.Errorf("locate: %s", res.Error)
			}
			if res := session.ReadSection(ctx, "1.2"); !res.Success {
				return fmt.Errorf("read: %s", res.Error)
			}
			if res := session.EditText(ctx, "shall commence", "shall begin"); !res.Success {
				return fmt.Errorf("edit: %s", res.Error)
			}

			ui.Status("proposed redline:")
			renderCurrent(ctx, doc)

			if report, ok := session.PendingChanges().Data.([]engine.ChangeSummary); ok {
				ui.RenderMarkdown(ui.BuildChangeReport(report))
			}

			if review {
				if err := ui.Review(session); err != nil {
					return err
				}
				ui.Status("after review:")
				renderCurrent(ctx, doc)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&review, "review", false, "Interactively accept or reject the proposed changes")
	return cmd
}

func renderCurrent(ctx context.Context, doc *document.Memory) {
	paras, err := doc.Paragraphs(ctx)
	if err != nil {
		return
	}
	runs, err := doc.StyledRuns(ctx)
	if err != nil {
		return
	}
	ui.RenderDocument(paras, runs)
}
