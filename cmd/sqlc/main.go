// Команда sqlc перегенерирует запросы: для каждого query.sql из .sqlc.base.yaml
// собирает отдельный sqlc.yaml с пакетом по имени каталога и вызывает sqlc generate.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"rate_monitor/pkg/logger"
)

const (
	baseConfigName    = ".sqlc.base"
	defaultConfigName = "sqlc.yaml"
)

// packageFor: internal/.../widget_preferences/sql/query.sql -> sql
func packageFor(file string) string {
	dir := filepath.Dir(file)
	return filepath.Base(dir)
}

func buildConfig(version string, engine *viper.Viper, file string) ([]byte, error) {
	dir := filepath.Dir(file) + string(os.PathSeparator)

	engine.Set("gen.go.package", packageFor(file))
	engine.Set("gen.go.out", dir)
	engine.Set("queries", file)

	settings := engine.AllSettings()
	delete(settings, "source")

	out := map[string]any{
		"version": version,
		"sql":     []any{settings},
	}
	bs, err := yaml.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config to yaml")
	}
	return bs, nil
}

func writeConfig(content []byte) (string, error) {
	_ = os.Remove(defaultConfigName)
	if err := os.WriteFile(defaultConfigName, content, 0o644); err != nil {
		return "", errors.Wrap(err, "write sqlc.yaml")
	}
	return defaultConfigName, nil
}

func callSqlc(config string) error {
	cmd := exec.Command("sqlc", "generate", "--file", config)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "call sqlc: %s", strings.TrimSpace(string(output)))
	}
	return nil
}

func sources(v *viper.Viper) ([]string, error) {
	patterns := v.GetStringSlice("sql.0.source")
	if len(patterns) == 0 {
		return nil, errors.New("has no sql.0.source in config")
	}
	var files []string
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", pattern)
		}
		files = append(files, f...)
	}
	return files, nil
}

func run() error {
	v := viper.New()
	v.SetConfigName(baseConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read base config")
	}

	files, err := sources(v)
	if err != nil {
		return err
	}

	engine := v.Sub("sql.0")
	if engine == nil {
		return errors.New("has no sql.0 section")
	}
	defer func() { _ = os.Remove(defaultConfigName) }()

	for _, file := range files {
		content, err := buildConfig(v.GetString("version"), engine, file)
		if err != nil {
			return err
		}
		config, err := writeConfig(content)
		if err != nil {
			return err
		}
		if err := callSqlc(config); err != nil {
			return err
		}
		logger.Info("%s generated", file)
	}
	return nil
}

func main() {
	if err := logger.Init(""); err != nil {
		panic(err)
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
