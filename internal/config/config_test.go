package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTriggerTimeDefaults(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	hour, minute := cfg.Scheduler.CrawlAt()
	if hour != 6 || minute != 0 {
		t.Fatalf("unexpected crawl default: %02d:%02d", hour, minute)
	}
	hour, minute = cfg.Scheduler.GenerateAt()
	if hour != 9 || minute != 0 {
		t.Fatalf("unexpected generate default: %02d:%02d", hour, minute)
	}
}

func TestMergeConfigKeepsExplicitMidnight(t *testing.T) {
	t.Parallel()

	raw := []byte("scheduler:\n  crawlHour: 0\n  crawlMinute: 0\n")
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	merged := mergeConfig(defaultConfig(), fileCfg)
	hour, minute := merged.Scheduler.CrawlAt()
	if hour != 0 || minute != 0 {
		t.Fatalf("an explicit 00:00 must survive the merge, got %02d:%02d", hour, minute)
	}

	// A file that says nothing about the clock keeps the defaults.
	merged = mergeConfig(defaultConfig(), Config{})
	hour, _ = merged.Scheduler.CrawlAt()
	if hour != 6 {
		t.Fatalf("absent fields must keep the default hour, got %d", hour)
	}
}

func TestMergeConfigGeneratorSection(t *testing.T) {
	t.Parallel()

	raw := []byte("generator:\n  topics:\n    - 自定义话题\n  maxArticles: 1\n")
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	merged := mergeConfig(defaultConfig(), fileCfg)
	if len(merged.Generator.Topics) != 1 || merged.Generator.Topics[0] != "自定义话题" {
		t.Fatalf("topics override lost: %v", merged.Generator.Topics)
	}
	if merged.Generator.MaxArticles != 1 {
		t.Fatalf("maxArticles override lost: %d", merged.Generator.MaxArticles)
	}
	if merged.Generator.Style != "informative" {
		t.Fatalf("absent style must keep the default, got %q", merged.Generator.Style)
	}
}
