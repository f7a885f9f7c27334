package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/qiniu/ruleview/internal/rules/model"
)

// sourcesFile 规则源配置文件
type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources 从 YAML 文件加载规则源列表
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	log.Info().
		Str("sources_file", path).
		Int("source_count", len(f.Sources)).
		Msg("Rule sources loaded successfully")

	return f.Sources, nil
}

// ValidateSources 验证规则源配置
func ValidateSources(sources []SourceConfig) error {
	var errs []error
	names := make(map[string]struct{}, len(sources))
	builtins := 0
	for i, s := range sources {
		// 名称必须唯一
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: name is required", i))
		} else if _, ok := names[s.Name]; ok {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate source name %q", i, s.Name))
		}
		names[s.Name] = struct{}{}

		switch s.Type {
		case SourceTypeBuiltin:
			// 内置规则源最多一个
			if builtins++; builtins > 1 {
				errs = append(errs, fmt.Errorf("sources[%d]: only one builtin source is allowed", i))
			}
		case SourceTypePrometheus:
			// 外部规则源不能占用内置规则源的 key
			if s.Name == model.BuiltinSourceKey {
				errs = append(errs, fmt.Errorf("sources[%d]: name %q is reserved for the builtin source", i, s.Name))
			}
			// 外部规则源必须提供 ruler 地址
			if err := validateURL(s.RulerURL); err != nil {
				errs = append(errs, fmt.Errorf("sources[%d] %q: ruler url: %w", i, s.Name, err))
			}
		default:
			errs = append(errs, fmt.Errorf("sources[%d] %q: unknown type %q", i, s.Name, s.Type))
		}

		if err := validateURL(s.PrometheusURL); err != nil {
			errs = append(errs, fmt.Errorf("sources[%d] %q: prometheus url: %w", i, s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
