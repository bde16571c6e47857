package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docutag/interlinker/models"
	"github.com/docutag/interlinker/slug"
)

// pagesFile is the YAML layout of a target page list
type pagesFile struct {
	Pages []models.PageInfo `yaml:"pages"`
}

// loadPages reads target pages from a YAML file. Pages without a slug get
// one derived from their title.
func loadPages(path string) ([]models.PageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages file: %w", err)
	}

	var f pagesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pages file: %w", err)
	}

	for i := range f.Pages {
		if f.Pages[i].Slug == "" {
			f.Pages[i].Slug = slug.Generate(f.Pages[i].Title)
		}
		if f.Pages[i].Slug == "" {
			return nil, fmt.Errorf("page %d: title or slug is required", i)
		}
	}
	return f.Pages, nil
}

// documentSlug derives a slug from a document file name
func documentSlug(path string) string {
	base := filepath.Base(path)
	return slug.GenerateWithFallback(strings.TrimSuffix(base, filepath.Ext(base)), "document")
}

// withoutPage drops the page matching docSlug so documents never link to themselves
func withoutPage(pages []models.PageInfo, docSlug string) []models.PageInfo {
	kept := make([]models.PageInfo, 0, len(pages))
	for _, p := range pages {
		if p.Slug != docSlug {
			kept = append(kept, p)
		}
	}
	return kept
}
