package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/studio-funnel/internal/config"
	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/integration/notion"
	"github.com/xavierca1/studio-funnel/internal/usecase"
)

// Creates a test brief in the site-build database, escalates it and reads
// it back. Run against a scratch workspace.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.NotionToken == "" || cfg.Databases.SiteBuild == "" {
		log.Fatal("NOTION_TOKEN and NOTION_DB_SITE_BUILD must be set in .env")
	}

	store := notion.NewStore(notion.NewClient(cfg.NotionBaseURL, cfg.NotionToken), cfg.Databases)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lead := &entity.Lead{
		Category: entity.FormSiteBuild,
		Name:     "Test Lead",
		Email:    "test.lead@example.com",
		Company:  "Example Co",
		Answers: map[string]entity.Answer{
			"budget":  entity.TextAnswer("$15k - $25k"),
			"urgency": entity.TextAnswer("1-3 months"),
			"pages":   entity.ListAnswer("Home", "About", "Contact"),
		},
		Action:    entity.ActionSubmission,
		CreatedAt: time.Now(),
	}
	s := usecase.ScoreLead(lead)
	lead.Score, lead.Temperature = s.Total, s.Temperature

	fmt.Println("creating brief...")
	id, err := store.CreateLead(ctx, lead)
	if err != nil {
		log.Fatalf("create brief: %v", err)
	}
	fmt.Printf("created %s (score %d, %s)\n", id, lead.Score, lead.Temperature)

	lead.Action = entity.ActionEmailRequested
	s = usecase.ScoreLead(lead)
	patch := entity.LeadPatch{Action: lead.Action, Score: s.Total, Temperature: s.Temperature}
	if err := store.UpdateLead(ctx, id, patch); err != nil {
		log.Fatalf("update brief: %v", err)
	}

	got, err := store.FindLead(ctx, id)
	if err != nil {
		log.Fatalf("find brief: %v", err)
	}
	fmt.Printf("read back: %s <%s> action=%s score=%d\n", got.Name, got.Email, got.Action, got.Score)
}
