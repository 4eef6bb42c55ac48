package handler

import (
	"victim-aid-go/internal/transport/httpserver/handler/admin"
	"victim-aid-go/internal/transport/httpserver/handler/aid"
	"victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/handler/families"
	"victim-aid-go/internal/transport/httpserver/handler/reports"
	"victim-aid-go/internal/transport/httpserver/handler/victims"
)

type Handlers struct {
	Common   *common.Handlers
	Families *families.Handlers
	Victims  *victims.Handlers
	Aid      *aid.Handlers
	Reports  *reports.Handlers
	Admin    *admin.Handlers
}
