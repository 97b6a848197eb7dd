/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package signal

import (
	"github.com/go-playground/validator/v10"

	drifterrors "github.com/driftsentry/driftcore/internal/errors"
	"github.com/driftsentry/driftcore/pkg/domain"
)

// schemaViolationCode is the failure code a missing required field
// produces.
const schemaViolationCode = "EXTRACTED_SCHEMA_VIOLATION"

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldNames maps a struct's Go field name to the wire-facing name used in
// violation errors and documented in each validateX doc comment.
var githubPRFieldNames = map[string]string{
	"ChangedFiles": "changedFiles",
	"TotalChanges": "totalChanges",
	"Diff":         "diff",
}

var pagerDutyFieldNames = map[string]string{
	"Status":           "status",
	"Service":          "service",
	"Responders":       "responders",
	"Teams":            "teams",
	"EscalationPolicy": "escalationPolicy",
	"Timeline":         "timeline",
}

var slackClusterFieldNames = map[string]string{
	"Questions":    "questions",
	"Messages":     "messages",
	"ClusterSize":  "clusterSize",
	"UniqueAskers": "uniqueAskers",
}

var datadogAlertFieldNames = map[string]string{
	"MonitorName": "monitorName",
	"Severity":    "severity",
	"AlertType":   "alertType",
	"Tags":        "tags",
}

// ValidateExtracted enforces the per-source required field set against an
// already-decoded ExtractedPayload via struct-tag validation. It returns an
// *errors.AppError with code EXTRACTED_SCHEMA_VIOLATION on the first missing
// or out-of-range field.
func ValidateExtracted(sourceType domain.SourceType, p domain.ExtractedPayload) error {
	switch sourceType {
	case domain.SourceGitHubPR:
		return validateStruct(p.GitHubPR, "extracted.githubPR", githubPRFieldNames)
	case domain.SourcePagerDutyIncident:
		return validateStruct(p.PagerDutyIncident, "extracted.pagerDutyIncident", pagerDutyFieldNames)
	case domain.SourceSlackCluster:
		return validateStruct(p.SlackCluster, "extracted.slackCluster", slackClusterFieldNames)
	case domain.SourceDatadogAlert:
		return validateStruct(p.DatadogAlert, "extracted.datadogAlert", datadogAlertFieldNames)
	case domain.SourceGitHubIaC, domain.SourceGitHubCodeowners:
		return validateStruct(p.GitHubPR, "extracted.githubPR", githubPRFieldNames)
	default:
		return drifterrors.NewWithCode(drifterrors.ErrorTypeValidation, schemaViolationCode,
			"unrecognized source type "+string(sourceType))
	}
}

// validateStruct runs validator.Struct against a decoded extracted payload
// (passed as any non-nil pointer) and translates its first FieldError into
// the same violation shape the hand-rolled checks used to produce, keyed
// through names so the wire-facing field name survives the translation
// from the Go identifier validator reports.
func validateStruct(p interface{}, nilField string, names map[string]string) error {
	switch v := p.(type) {
	case *domain.GitHubPRExtracted:
		if v == nil {
			return violation(nilField)
		}
	case *domain.PagerDutyIncidentExtracted:
		if v == nil {
			return violation(nilField)
		}
	case *domain.SlackClusterExtracted:
		if v == nil {
			return violation(nilField)
		}
	case *domain.DatadogAlertExtracted:
		if v == nil {
			return violation(nilField)
		}
	}

	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return drifterrors.NewWithCode(drifterrors.ErrorTypeValidation, schemaViolationCode, err.Error())
	}
	first := verrs[0]
	name, ok := names[first.StructField()]
	if !ok {
		name = first.StructField()
	}
	return violation(name)
}

func violation(field string) error {
	return drifterrors.NewWithCode(drifterrors.ErrorTypeValidation, schemaViolationCode,
		"missing required field: "+field).WithDetails(field)
}
