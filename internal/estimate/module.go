// Package estimate provides the estimate conversation bounded context module.
// This file wires the catalog, classifier, conversation engine, session
// store and HTTP handler.
package estimate

import (
	"estimate_portal_backend/internal/estimate/catalog"
	"estimate_portal_backend/internal/estimate/chat"
	"estimate_portal_backend/internal/estimate/classifier"
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/estimate/handler"
	"estimate_portal_backend/internal/estimate/service"
	"estimate_portal_backend/internal/estimate/sessionstore"
	apphttp "estimate_portal_backend/internal/http"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/logger"
	"estimate_portal_backend/platform/validator"
)

// Config is what the module reads from the application config.
type Config interface {
	config.EstimateConfig
	config.BusinessConfig
}

// Module is the estimate bounded context module.
type Module struct {
	engine  *conversation.Engine
	store   sessionstore.Store
	service *service.Service
	handler *handler.Handler
}

// NewModule creates the estimate module. saver may be nil, in which case
// completed sessions offer the business contact channels instead of a
// saved lead.
func NewModule(cfg Config, cat *catalog.Catalog, store sessionstore.Store, saver conversation.LeadSaver, log *logger.Logger) *Module {
	engine := conversation.NewEngine(conversation.Deps{
		Classifier:     classifier.New(cat),
		Saver:          saver,
		Log:            log,
		PersistTimeout: cfg.GetPersistTimeout(),
	})
	svc := service.New(engine, store, cat, BusinessContacts(cfg), log)

	return &Module{
		engine:  engine,
		store:   store,
		service: svc,
		handler: handler.New(svc, validator.New(), log),
	}
}

// LoadCatalog reads the catalog named by CATALOG_PATH, or the built-in one
// when no path is set. Entries skipped while loading are logged.
func LoadCatalog(cfg config.CatalogConfig, log *logger.Logger) (*catalog.Catalog, error) {
	var (
		cat    *catalog.Catalog
		issues []catalog.Issue
		err    error
	)
	if path := cfg.GetCatalogPath(); path != "" {
		cat, issues, err = catalog.LoadFile(path)
	} else {
		cat, issues, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		log.CatalogIssue(issue.Phrase, issue.Service, issue.Err)
	}
	return cat, nil
}

// BusinessContacts builds the manual contact channels from config.
func BusinessContacts(cfg config.BusinessConfig) chat.Contacts {
	return chat.Contacts{
		Name:           cfg.GetBusinessName(),
		Phone:          cfg.GetBusinessPhone(),
		PhoneFormatted: cfg.GetBusinessPhoneFormatted(),
		Email:          cfg.GetBusinessEmail(),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "estimate"
}

// Engine returns the conversation engine shared by every adapter.
func (m *Module) Engine() *conversation.Engine {
	return m.engine
}

// SessionStore returns the store holding sessions between turns.
func (m *Module) SessionStore() sessionstore.Store {
	return m.store
}

// RegisterRoutes mounts estimate routes on the public v1 group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/estimate"))
	ctx.V1.GET("/business/contact", m.handler.BusinessContact)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
