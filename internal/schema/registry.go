package schema

import (
	"fmt"
	"slices"

	"github.com/jonathan/trade-hire/internal/llm"
)

// TaskKind identifies one kind of extraction.
type TaskKind string

// Known task kinds.
const (
	TaskResumeOnboarding TaskKind = "resume-onboarding"
	TaskResumeProfile    TaskKind = "resume-profile"
	TaskWebsiteCompany   TaskKind = "website-company"
	TaskPromptJob        TaskKind = "prompt-job"
)

// SourceKind is the kind of raw input a task consumes.
type SourceKind string

// Source kinds.
const (
	SourceDocument SourceKind = "document"
	SourceHTML     SourceKind = "html"
	SourceText     SourceKind = "text"
)

// Task describes one kind of extraction: the target record, its instruction template and input bound.
// Tasks are defined once at package init and never mutated.
type Task struct {
	Kind            TaskKind
	Record          string // target record name, e.g. "JobPosting"
	Source          SourceKind
	PromptKey       string   // key in prompts/extraction.json
	ContextVars     []string // template variables substituted into the prompt
	MaxInputLength  int      // characters
	MaxOutputTokens int
	Tier            llm.ModelTier
	Fields          []Field
}

// Field returns the named field definition.
func (t Task) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the names of required fields in schema order.
func (t Task) RequiredFields() []string {
	var names []string
	for _, f := range t.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldNames returns all field names in schema order.
func (t Task) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

// UnknownTaskError is returned for a task kind the registry does not define.
type UnknownTaskError struct {
	Kind TaskKind
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown extraction task: %q", e.Kind)
}

var registry = mustBuild(
	resumeOnboardingTask(),
	resumeProfileTask(),
	websiteCompanyTask(),
	promptJobTask(),
)

// For returns the task definition for kind.
func For(kind TaskKind) (Task, error) {
	task, ok := registry[kind]
	if !ok {
		return Task{}, &UnknownTaskError{Kind: kind}
	}
	return task, nil
}

// MustFor is For that panics on unknown kinds. Use it for compile-time known kinds only.
func MustFor(kind TaskKind) Task {
	task, err := For(kind)
	if err != nil {
		panic(err)
	}
	return task
}

// Kinds lists all registered task kinds in a stable order.
func Kinds() []TaskKind {
	kinds := make([]TaskKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func mustBuild(tasks ...Task) map[TaskKind]Task {
	out := make(map[TaskKind]Task, len(tasks))
	for _, t := range tasks {
		if err := check(t); err != nil {
			panic(err)
		}
		if _, dup := out[t.Kind]; dup {
			panic(fmt.Sprintf("schema: duplicate task kind %q", t.Kind))
		}
		out[t.Kind] = t
	}
	return out
}

// check enforces definition-time invariants.
func check(t Task) error {
	if t.MaxInputLength <= 0 {
		return fmt.Errorf("schema: task %q has no input limit", t.Kind)
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f.Name] {
			return fmt.Errorf("schema: task %q declares %q twice", t.Kind, f.Name)
		}
		seen[f.Name] = true
		if f.Kind.IsEnum() && len(f.Values) == 0 {
			return fmt.Errorf("schema: enum field %s.%s has no legal values", t.Kind, f.Name)
		}
		if def, ok := f.Default.(string); ok && f.Kind == KindEnum && !f.Allows(def) {
			return fmt.Errorf("schema: default %q of %s.%s is not a legal value", def, t.Kind, f.Name)
		}
	}
	return nil
}

func resumeFields() []Field {
	return []Field{
		{Name: "headline", Kind: KindString, Description: "Short professional headline, e.g. 'Licensed journeyman electrician'"},
		{Name: "primaryTrade", Kind: KindEnum, Required: true, Values: Trades, Description: "The candidate's main trade"},
		{Name: "additionalTrades", Kind: KindEnumArray, Values: Trades, Description: "Other trades the candidate has worked in"},
		{Name: "experienceLevel", Kind: KindEnum, Values: ExperienceLevels, Description: "Seniority in the primary trade"},
		{Name: "yearsExperience", Kind: KindNumber, Required: true, Description: "Total years working in the trades"},
		{Name: "location", Kind: KindString, Required: true, Description: "City and state, e.g. 'Denver, CO'"},
		{Name: "certifications", Kind: KindEnumArray, Values: Certifications, Description: "Certifications and licenses held"},
		{Name: "skills", Kind: KindStringArray, Description: "Concrete skills, tools and systems, copied from the resume"},
		{Name: "summary", Kind: KindString, Required: true, Description: "Two or three sentence summary in the candidate's voice"},
		{Name: "hasDriversLicense", Kind: KindBoolean, Description: "True only if the resume states a valid driver's license"},
		{Name: "hasOwnTools", Kind: KindBoolean, Description: "True only if the resume states the candidate owns their tools"},
	}
}

func resumeOnboardingTask() Task {
	fields := append(resumeFields(),
		Field{Name: "availability", Kind: KindEnum, Values: Availability, Description: "How soon the candidate can start"},
		Field{Name: "desiredJobTypes", Kind: KindEnumArray, Values: JobTypes, Description: "Employment types the candidate is looking for"},
	)
	return Task{
		Kind:            TaskResumeOnboarding,
		Record:          "CandidateProfile",
		Source:          SourceDocument,
		PromptKey:       "resume-onboarding",
		ContextVars:     []string{"FirstName"},
		MaxInputLength:  15000,
		MaxOutputTokens: 2048,
		Tier:            llm.TierStandard,
		Fields:          fields,
	}
}

func resumeProfileTask() Task {
	fields := append(resumeFields(),
		Field{Name: "workHistory", Kind: KindStringArray, Description: "One entry per job: 'Role at Company (start-end)'"},
		Field{Name: "education", Kind: KindStringArray, Description: "Schools, trade programs and apprenticeships"},
	)
	return Task{
		Kind:            TaskResumeProfile,
		Record:          "CandidateProfile",
		Source:          SourceDocument,
		PromptKey:       "resume-profile",
		ContextVars:     []string{"FirstName"},
		MaxInputLength:  20000,
		MaxOutputTokens: 4096,
		Tier:            llm.TierStandard,
		Fields:          fields,
	}
}

func websiteCompanyTask() Task {
	return Task{
		Kind:            TaskWebsiteCompany,
		Record:          "CompanyProfile",
		Source:          SourceHTML,
		PromptKey:       "website-company",
		ContextVars:     []string{"WebsiteURL", "CompanyName"},
		MaxInputLength:  20000,
		MaxOutputTokens: 2048,
		Tier:            llm.TierLite,
		Fields: []Field{
			{Name: "companyName", Kind: KindString, Required: true, Description: "Legal or trading name of the company"},
			{Name: "description", Kind: KindString, Required: true, Description: "What the company does, in two or three sentences"},
			{Name: "specialties", Kind: KindEnumArray, Required: true, Values: Trades, Description: "Trades the company performs or hires for"},
			{Name: "companySize", Kind: KindEnum, Values: CompanySizes, Description: "Headcount bucket if stated"},
			{Name: "yearFounded", Kind: KindNumber, Description: "Four digit year the company was founded"},
			{Name: "location", Kind: KindString, Required: true, Description: "Headquarters city and state"},
			{Name: "serviceAreas", Kind: KindStringArray, Description: "Cities, counties or regions served"},
			{Name: "phone", Kind: KindString, Description: "Main phone number"},
			{Name: "email", Kind: KindString, Description: "Main contact email"},
			{Name: "licensedAndInsured", Kind: KindBoolean, Description: "True only if the site says licensed and insured"},
		},
	}
}

func promptJobTask() Task {
	return Task{
		Kind:            TaskPromptJob,
		Record:          "JobPosting",
		Source:          SourceText,
		PromptKey:       "prompt-job",
		ContextVars:     []string{"CompanyName"},
		MaxInputLength:  4000,
		MaxOutputTokens: 2048,
		Tier:            llm.TierStandard,
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Description: "Job title"},
			{Name: "description", Kind: KindString, Description: "Posting body a candidate would read"},
			{Name: "primaryTrade", Kind: KindEnum, Required: true, Values: Trades, Description: "Trade being hired"},
			{Name: "jobType", Kind: KindEnum, Required: true, Values: JobTypes, Default: "FULL_TIME", Description: "Employment type"},
			{Name: "experienceLevel", Kind: KindEnum, Values: ExperienceLevels, Description: "Seniority sought"},
			{Name: "compensation", Kind: KindString, Required: true, Description: "Pay as stated, e.g. '$32-38/hr'"},
			{Name: "payType", Kind: KindEnum, Values: PayTypes, Description: "How pay is quoted"},
			{Name: "payMin", Kind: KindNumber, Description: "Lower bound of pay in dollars"},
			{Name: "payMax", Kind: KindNumber, Description: "Upper bound of pay in dollars"},
			{Name: "benefits", Kind: KindEnumArray, Required: true, Values: Benefits, Description: "Benefits offered"},
			{Name: "location", Kind: KindString, Required: true, Description: "Job site city and state"},
			{Name: "requirements", Kind: KindStringArray, Required: true, Description: "Must-have qualifications"},
			{Name: "certifications", Kind: KindEnumArray, Values: Certifications, Description: "Certifications required or preferred"},
			{Name: "travelRequired", Kind: KindBoolean, Description: "True if the job requires travel between sites"},
		},
	}
}
