package checklist

import "qdrt_backend/internal/model"

// Column labels of the tabular export.
var SADColumns = []string{
	"#",
	"Question",
	"Original Finding",
	"Final Finding",
	"Itemized Concerns",
	"Original Risk",
	"Final Risk",
	"Comments/Notes",
}

var (
	FindingOptions = []string{"TBD", "Yes", "Mostly Yes", "Mostly No", "No"}
	RiskOptions    = []string{"Make Selection", "LOW", "MEDIUM", "HIGH", "EXTREME", "n/a"}
)

const concernsTemplate = "INITIALS: Concern #1\nINITIALS: Concern #2\n - Etc."

func sadDefaults() model.AnswerRecord {
	return model.AnswerRecord{}.
		With(model.FieldOriginalFinding, "TBD").
		With(model.FieldFinalFinding, "TBD").
		With(model.FieldItemizedConcerns, concernsTemplate).
		With(model.FieldOriginalRisk, "Make Selection").
		With(model.FieldFinalRisk, "Make Selection")
}

var sadQuestions = []model.Question{
	{ID: 3, Prompt: "Was the correct template selected (Enterprise Architecture template or Standard template)?\n(Links to both SAD templates available above.)"},
	{ID: 4, Prompt: "Are all sections of the original template present and completed?"},
	{ID: 5, Prompt: "Was the SAD written with the expectation that a project 3-5 years from now will be able to understand the solution intent and constraints without the original context?"},
	{ID: 6, Prompt: "Is the business problem clearly stated and measurable?"},
	{ID: 7, Prompt: "Is the proposed solution aligned with business capabilities and outcomes?"},
	{ID: 8, Prompt: "Does the solution identify all major components and their interactions (context, containers, components)?"},
	{ID: 9, Prompt: "Are security requirements addressed (identity, access, encryption, secrets, logging, monitoring)?"},
	{ID: 10, Prompt: "Are privacy & data classification handled appropriately (PII/PCI/PHI, retention, residency)?"},
	{ID: 11, Prompt: "Does the design consider reliability, availability, and disaster recovery?"},
	{ID: 12, Prompt: "Are scalability and performance requirements identified and feasible?"},
	{ID: 13, Prompt: "Are integration points well defined (APIs, events, data movement) and versioned?"},
	{ID: 14, Prompt: "Are non-functional requirements (NFRs) explicit and testable?"},
	{ID: 15, Prompt: "Does the solution follow cloud/provider best practices and well-architected guidance?"},
	{ID: 16, Prompt: "Has cost estimation and cost controls (FinOps) been considered?"},
	{ID: 17, Prompt: "Are operations, observability and support models clearly defined (runbooks, SLAs, alerts, dashboards)?"},
	{ID: 18, Prompt: "Are data governance and lifecycle considerations addressed (quality, lineage, retention)?"},
	{ID: 19, Prompt: "Is the approach to testing and validation comprehensive (unit, integration, performance, security)?"},
	{ID: 20, Prompt: "Are risks, assumptions, issues, and dependencies (RAID) captured with mitigation strategies?"},
	{ID: 21, Prompt: "Does the solution adhere to enterprise patterns, standards, and policies (including ITIL services)?"},
	{ID: 22, Prompt: "Is the deployment strategy clear (environments, pipelines, approvals, rollbacks)?"},
	{ID: 23, Prompt: "Are access and connectivity patterns explicit (VNet, peering, firewall, private endpoints)?"},
	{ID: 24, Prompt: "Has the solution been reviewed for compliance (regulatory, legal, records management)?"},
	{ID: 25, Prompt: "Is there a clear cutover/transition plan including data migration and rollback?"},
	{ID: 26, Prompt: "Section 8: Is this architecture consistent with SCE patterns, standards and pre-defined building blocks?"},
}

var defaultSchema = func() *Schema {
	questions := make([]model.Question, len(sadQuestions))
	for i, q := range sadQuestions {
		q.Defaults = sadDefaults()
		questions[i] = q
	}
	return MustNew(
		"SAD QDRT (Interactive)",
		"Solution Architecture Definition (SAD)",
		SADColumns,
		map[model.Field][]string{
			model.FieldOriginalFinding: FindingOptions,
			model.FieldFinalFinding:    FindingOptions,
			model.FieldOriginalRisk:    RiskOptions,
			model.FieldFinalRisk:       RiskOptions,
		},
		questions,
	)
}()

// Default returns the SAD quality document review checklist.
func Default() *Schema {
	return defaultSchema
}
