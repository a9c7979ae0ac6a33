// Package docs registers the API description served under /v1/swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/availability": {"get": {"tags": ["booking"], "summary": "Availability calendar", "responses": {"200": {"description": "OK"}}}},
        "/pricing": {"get": {"tags": ["booking"], "summary": "Public pricing", "responses": {"200": {"description": "OK"}}}},
        "/quote": {"post": {"tags": ["booking"], "summary": "Quote a stay", "responses": {"200": {"description": "OK"}, "409": {"description": "unavailable_range"}, "422": {"description": "invalid_dates or min_stay_not_met"}}}},
        "/selection": {"post": {"tags": ["booking"], "summary": "Date picker step", "responses": {"200": {"description": "OK"}}}},
        "/bookings": {"post": {"tags": ["booking"], "summary": "Request a booking", "responses": {"201": {"description": "Created"}, "409": {"description": "unavailable_range or price_changed"}, "422": {"description": "invalid_dates, min_stay_not_met or required_fields_missing"}}}},
        "/contact": {"post": {"tags": ["booking"], "summary": "Contact form", "responses": {"201": {"description": "Created"}}}},
        "/dossier/{token}": {"get": {"tags": ["dossier"], "summary": "Booking dossier", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/dossier/{token}/signed-contract": {"post": {"tags": ["dossier"], "summary": "Upload the signed contract", "responses": {"200": {"description": "OK"}, "409": {"description": "contract_not_yet_sent"}}}},
        "/dossier/{token}/review": {"post": {"tags": ["dossier"], "summary": "Leave a review", "responses": {"200": {"description": "OK"}, "409": {"description": "review_window_closed"}}}},
        "/dossier/{token}/share": {"get": {"tags": ["dossier"], "summary": "Share links", "responses": {"200": {"description": "OK"}}}},
        "/authentication/token": {"post": {"tags": ["authentication"], "summary": "Admin login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/authentication/refresh": {"post": {"tags": ["authentication"], "summary": "Refresh authentication tokens", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/admin/bookings": {"get": {"tags": ["admin-bookings"], "summary": "List bookings", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{bookingID}": {
            "get": {"tags": ["admin-bookings"], "summary": "Booking detail", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["admin-bookings"], "summary": "Delete a booking", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "confirmation_required"}, "422": {"description": "reason_required"}}}
        },
        "/admin/bookings/{bookingID}/status": {"put": {"tags": ["admin-bookings"], "summary": "Save booking status", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "confirmation_required or unavailable_range"}}}},
        "/admin/bookings/{bookingID}/gates/{gate}": {"put": {"tags": ["admin-bookings"], "summary": "Mark or unmark a settlement step", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "gate_sequence_violation"}}}},
        "/admin/bookings/{bookingID}/dates": {"put": {"tags": ["admin-bookings"], "summary": "Move a booking", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{bookingID}/payment-notes": {"put": {"tags": ["admin-bookings"], "summary": "Edit payment notes", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{bookingID}/contract": {"post": {"tags": ["admin-bookings"], "summary": "Upload the owner contract", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{bookingID}/files": {"get": {"tags": ["admin-bookings"], "summary": "Contract file links", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{bookingID}/outreach": {"get": {"tags": ["admin-bookings"], "summary": "Message the guest", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{bookingID}/draft": {"get": {"tags": ["admin-bookings"], "summary": "Email draft", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/reference/{reference}": {"get": {"tags": ["admin-bookings"], "summary": "Find a booking by reference", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/blocked-dates": {
            "get": {"tags": ["admin-calendar"], "summary": "List blocked ranges", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["admin-calendar"], "summary": "Block dates", "security": [{"ApiKeyAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/blocked-dates/{blockID}": {"delete": {"tags": ["admin-calendar"], "summary": "Unblock dates", "security": [{"ApiKeyAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/admin/pricing-rules": {
            "get": {"tags": ["admin-pricing"], "summary": "List pricing rules", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["admin-pricing"], "summary": "Create a pricing rule", "security": [{"ApiKeyAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/pricing-rules/{ruleID}": {
            "put": {"tags": ["admin-pricing"], "summary": "Update a pricing rule", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["admin-pricing"], "summary": "Delete a pricing rule", "security": [{"ApiKeyAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/admin/settings": {
            "get": {"tags": ["admin-pricing"], "summary": "Site settings", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["admin-pricing"], "summary": "Save site settings", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/messages": {"get": {"tags": ["admin-messages"], "summary": "Contact messages", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/messages/{messageID}": {"delete": {"tags": ["admin-messages"], "summary": "Delete a message", "security": [{"ApiKeyAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/admin/messages/{messageID}/read": {"put": {"tags": ["admin-messages"], "summary": "Mark a message read or unread", "security": [{"ApiKeyAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/admin/dashboard": {"get": {"tags": ["admin-bookings"], "summary": "Back office overview", "security": [{"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/logout": {"post": {"tags": ["authentication"], "summary": "Logout", "security": [{"ApiKeyAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/health": {"get": {"tags": ["ops"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Rental API",
	Description:      "Direct booking, dossier and back office API for a single holiday rental.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
