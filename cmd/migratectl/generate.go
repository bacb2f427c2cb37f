package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"data-migration-tool/internal/infra"
	"data-migration-tool/internal/usecase"
)

// generateCmd はマイグレーションごとのクライアントコード生成コマンド。
func generateCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "generate [migration]",
		Short: "Generate a client for each migration that has a schema document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			generator, err := infra.NewGenerateRunner(cfg.GenerateCommand)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.CodegenConcurrency
			}
			svc, err := usecase.NewCodegenService(registry, generator, usecase.CodegenOptions{
				OutputDir:   cfg.ClientOutputDir,
				TempDir:     cfg.TempSchemaDir,
				Concurrency: concurrency,
			})
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := svc.Generate(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Printf("Generated client for %s in %s\n", args[0], svc.OutputPath(args[0]))
				return nil
			}

			generated, err := svc.GenerateAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(generated) == 0 {
				fmt.Println("No migrations with a schema document.")
				return nil
			}
			for _, name := range generated {
				fmt.Printf("Generated client for %s in %s\n", name, svc.OutputPath(name))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of generators to run at once (defaults to CODEGEN_CONCURRENCY)")
	return cmd
}
