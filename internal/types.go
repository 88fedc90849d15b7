package internal

import (
	"sjsage522/listingwatch/helpers"
	"sjsage522/listingwatch/services/cache"
	"sjsage522/listingwatch/services/mailer"
	"sjsage522/listingwatch/services/publisher"
	"sjsage522/listingwatch/services/report"
	"sjsage522/listingwatch/services/store"
)

// Dependencies holds all service dependencies of a run
type Dependencies struct {
	Cache    cache.CacheService
	Store    store.Backend
	Reporter *report.Reporter
	Mailer   mailer.Mailer
	Logger   helpers.LoggerInterface
	// Publisher is nil when stream publishing is disabled
	Publisher publisher.Publisher
}
