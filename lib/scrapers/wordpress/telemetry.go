package wordpress

import (
	"pfetracker/lib/telemetry"
)

var tracer = telemetry.Tracer("pfetracker.lib.scrapers.wordpress")
var meter = telemetry.Meter("pfetracker.lib.scrapers.wordpress")

var pagesCounter, _ = meter.Int64Counter("wordpress.pages_fetched")
var itemsCounter, _ = meter.Int64Counter("wordpress.items_fetched")
var failuresCounter, _ = meter.Int64Counter("wordpress.page_failures")
