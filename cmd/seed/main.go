// Command seed loads a small sample content graph: three projects with
// text sources, summaries, tokenized translations, videos, and links.
// Everything is written in one transaction and tagged with a batch ID
// so a seeding run can be identified (and cleaned up) later.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"signstore/internal/config"
	"signstore/internal/entity"
	"signstore/internal/logger"
	"signstore/internal/postgres"
)

func main() {
	clear := flag.Bool("clear", false, "delete all existing rows before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	store, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Errorw("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *clear {
		if _, err := store.Exec(ctx, `TRUNCATE projects, text_sources, summaries, translations, videos, links RESTART IDENTITY CASCADE`); err != nil {
			log.Errorw("clear failed", "error", err)
			os.Exit(1)
		}
		log.Infow("existing data cleared")
	}

	batch := uuid.NewString()
	if err := seed(ctx, store, batch); err != nil {
		log.Errorw("seeding failed", "error", err, "batch", batch)
		os.Exit(1)
	}
	log.Infow("seeding completed", "batch", batch)
	fmt.Printf("database seeded (batch %s)\n", batch)
}

func seed(ctx context.Context, store *postgres.Store, batch string) error {
	return store.WithTransaction(ctx, func(tx *postgres.Tx) error {
		projects := sampleProjects(batch)
		if err := tx.Projects.BulkCreate(ctx, projects); err != nil {
			return err
		}

		sources := sampleTextSources(batch, projects)
		if err := tx.TextSources.BulkCreate(ctx, sources); err != nil {
			return err
		}

		if err := tx.Summaries.BulkCreate(ctx, sampleSummaries(batch, sources)); err != nil {
			return err
		}
		if err := tx.Translations.BulkCreate(ctx, sampleTranslations(batch, sources)); err != nil {
			return err
		}
		if err := tx.Videos.BulkCreate(ctx, sampleVideos(batch, sources)); err != nil {
			return err
		}
		return tx.Links.BulkCreate(ctx, sampleLinks(batch, sources))
	})
}

func tag(e interface{ SetMeta(string, any) }, batch string) {
	e.SetMeta("seed_batch", batch)
}

func sampleProjects(batch string) []*entity.Project {
	research := entity.NewProject("AI Research Project")
	research.Description = "Comprehensive research on artificial intelligence applications in healthcare"
	research.SetMeta("department", "AI Research")
	research.SetMeta("priority", "high")

	climate := entity.NewProject("Climate Change Analysis")
	climate.Description = "Analysis of climate change impacts on coastal regions"
	climate.SetMeta("department", "Environmental Science")
	climate.SetMeta("priority", "medium")

	education := entity.NewProject("Educational Technology Study")
	education.Description = "Study on the effectiveness of digital learning platforms"
	education.SetMeta("department", "Education")
	education.SetMeta("priority", "medium")

	out := []*entity.Project{research, climate, education}
	for _, p := range out {
		tag(p, batch)
	}
	return out
}

func sampleTextSources(batch string, projects []*entity.Project) []*entity.TextSource {
	mlReview := entity.NewTextSource(projects[0].ID,
		"Machine Learning in Healthcare: A Comprehensive Review",
		"This comprehensive review examines the current state of machine learning applications in healthcare, covering medical imaging, drug discovery, and patient diagnosis.")
	mlReview.SourceType = "research_paper"
	mlReview.SourceURL = "https://example.com/ml-healthcare-review.pdf"

	ethics := entity.NewTextSource(projects[0].ID,
		"AI Ethics Guidelines for Healthcare Applications",
		"This document outlines ethical guidelines for implementing AI systems in healthcare settings: transparency, fairness, accountability, and patient privacy.")
	ethics.SourceType = "guidelines"
	ethics.SourceURL = "https://example.com/ai-ethics-healthcare.pdf"

	seaLevel := entity.NewTextSource(projects[1].ID,
		"Sea Level Rise Projections for 2050",
		"Based on current climate models we project sea level rise of 15-30 cm by 2050 in coastal regions, with regional variation driven by land subsidence and ocean currents.")
	seaLevel.SourceType = "report"
	seaLevel.SourceURL = "https://example.com/sea-level-projections.pdf"

	survey := entity.NewTextSource(projects[2].ID,
		"Digital Learning Platform Effectiveness Survey",
		"Survey results from 1,000 students across 50 schools show that digital learning platforms improve engagement by 40% and learning outcomes by 25%.")
	survey.SourceType = "survey"

	out := []*entity.TextSource{mlReview, ethics, seaLevel, survey}
	for _, s := range out {
		tag(s, batch)
	}
	return out
}

func sampleSummaries(batch string, sources []*entity.TextSource) []*entity.Summary {
	executive := entity.NewSummary(sources[0].ID,
		"Machine learning shows significant promise in healthcare with 95%+ accuracy in diagnostic tasks. Main challenges are data privacy, model interpretability, and regulatory compliance.")
	executive.Title = "Executive Summary: ML in Healthcare"
	executive.SummaryType = "executive"

	keyPoints := entity.NewSummary(sources[1].ID,
		"Core principles: transparency, fairness, accountability, patient privacy. Emphasizes human oversight and explainable AI.")
	keyPoints.Title = "Key Points: AI Ethics Guidelines"
	keyPoints.SummaryType = "key_points"

	technical := entity.NewSummary(sources[2].ID,
		"Projected 15-30 cm sea level rise by 2050 based on CMIP6 models. Regional variations due to local factors.")
	technical.Title = "Technical Summary: Sea Level Projections"
	technical.SummaryType = "technical"

	out := []*entity.Summary{executive, keyPoints, technical}
	for _, s := range out {
		tag(s, batch)
	}
	return out
}

func sampleTranslations(batch string, sources []*entity.TextSource) []*entity.Translation {
	spanish := entity.NewTranslation(sources[0].ID, "es", []entity.Token{
		{Text: "Esta", Pos: 0},
		{Text: "revisión", Pos: 1},
		{Text: "examina", Pos: 2},
		{Text: "el", Pos: 3},
		{Text: "aprendizaje", Pos: 4},
		{Text: "automático", Pos: 5},
		{Text: "en", Pos: 6},
		{Text: "atención", Pos: 7},
		{Text: "médica", Pos: 8},
	})
	spanish.Title = "Aprendizaje Automático en Atención Médica"
	spanish.OriginalText = "Esta revisión examina el aprendizaje automático en atención médica."

	french := entity.NewTranslation(sources[1].ID, "fr", []entity.Token{
		{Text: "Ce", Pos: 0},
		{Text: "document", Pos: 1},
		{Text: "décrit", Pos: 2},
		{Text: "les", Pos: 3},
		{Text: "directives", Pos: 4},
		{Text: "éthiques", Pos: 5},
		{Text: "de", Pos: 6},
		{Text: "santé", Pos: 7},
	})
	french.Title = "Directives Éthiques de l'IA pour la Santé"
	french.OriginalText = "Ce document décrit les directives éthiques de santé."

	out := []*entity.Translation{spanish, french}
	for _, t := range out {
		tag(t, batch)
	}
	return out
}

func sampleVideos(batch string, sources []*entity.TextSource) []*entity.Video {
	size1, dur1 := int64(1073741824), int64(3600)
	panel := entity.NewVideo(sources[0].ID, "/media/videos/ml_healthcare_panel.mp4")
	panel.Title = "ML in Healthcare: Expert Panel Discussion"
	panel.FileURL = "https://cdn.example.com/videos/ml_healthcare_panel.mp4"
	panel.FileSize = &size1
	panel.Duration = &dur1
	panel.Format = "mp4"
	panel.ThumbnailPath = "/media/thumbnails/ml_healthcare_panel.jpg"

	size2, dur2 := int64(536870912), int64(1800)
	viz := entity.NewVideo(sources[2].ID, "/media/videos/climate_data_viz.mp4")
	viz.Title = "Climate Data Visualization Demo"
	viz.FileURL = "https://cdn.example.com/videos/climate_data_viz.mp4"
	viz.FileSize = &size2
	viz.Duration = &dur2
	viz.Format = "mp4"
	viz.ThumbnailPath = "/media/thumbnails/climate_data_viz.jpg"

	out := []*entity.Video{panel, viz}
	for _, v := range out {
		tag(v, batch)
	}
	return out
}

func sampleLinks(batch string, sources []*entity.TextSource) []*entity.Link {
	nature := entity.NewLink(sources[0].ID, "https://www.nature.com/articles/s41591-021-01614-0")
	nature.Title = "AI for healthcare: The promise, the hype, the promise"
	nature.Description = "Nature Medicine article discussing AI applications in healthcare"

	repo := entity.NewLink(sources[0].ID, "https://github.com/healthcare-ai/ml-models")
	repo.Title = "Healthcare ML Models Repository"
	repo.Description = "Open source repository of machine learning models for healthcare"
	repo.LinkType = "resource"

	who := entity.NewLink(sources[1].ID, "https://www.who.int/publications/i/item/ethics-and-governance-of-ai-for-health")
	who.Title = "WHO Ethics and Governance of AI for Health"
	who.LinkType = "guidelines"

	nasa := entity.NewLink(sources[2].ID, "https://climate.nasa.gov/evidence/")
	nasa.Title = "NASA Climate Change Evidence"
	nasa.LinkType = "data_source"

	out := []*entity.Link{nature, repo, who, nasa}
	for _, l := range out {
		tag(l, batch)
	}
	return out
}
