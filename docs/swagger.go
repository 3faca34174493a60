// Package docs provides Swagger documentation for the API.
package docs

// @title FunilZap CRM Funnel API
// @version 1.0
// @description WhatsApp follow-up funnel driven by Monday.com board webhooks

// @host localhost:8080
// @BasePath /
// @schemes http https
