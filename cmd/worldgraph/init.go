package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"worldgraph/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var domain string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new worldgraph project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, domain)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&domain, "domain", "lists", "Domain of the world")
	return cmd
}

func runInit(projectName, domain string) error {
	domainPath := filepath.Join(filepath.Dir(configPath), config.DefaultDomainFile)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(domainPath); err == nil {
		return fmt.Errorf("%s already exists", domainPath)
	}

	u, err := newUniverse(domain)
	if err != nil {
		return err
	}
	descriptor := config.DomainDescriptor{Version: 1, Name: domain}
	for _, op := range u.Operations() {
		descriptor.Operations = append(descriptor.Operations, config.OperationSpec{
			Type: op.Type.Name,
			Name: op.Name,
			ID:   strings.ToLower(op.Key()),
		})
	}
	domainContents, err := yaml.Marshal(&descriptor)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", domainPath, err)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\nlog:\n  level: info\n  format: console\n\nworld:\n  domain: %s\n  values: [1, 2, 3, 4]\n\nprobe:\n  concurrency: 4\n  limit: 256\n  dedupe: true\n", projectName, domain)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(domainPath, domainContents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", domainPath, err)
	}

	return nil
}
