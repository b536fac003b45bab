package main

import (
	"fmt"
	"os"

	"people_api/internal/config"
	"people_api/pkg/log"

	"github.com/spf13/cobra"
)

// Version 在构建时注入。
var Version = "dev"

func main() {
	if err := Execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// Execute 是命令行入口，拆出来便于测试。
func Execute(args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "people-api",
		Short:        "People directory REST API",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "配置文件路径")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newReindexCmd(&configPath),
		newTokenCmd(&configPath),
	)
	return rootCmd
}

// loadConfig 读取配置、写入全局 config.Conf 并初始化日志。
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.Conf = *cfg
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	return cfg, nil
}
