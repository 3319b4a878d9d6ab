package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Domain documents are stored as JSON in a data column next to the scalar
// columns that queries filter and sort on. Timestamps used for ordering are
// unix milliseconds.

var (
	questionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "section", Type: field.TypeString},
		{Name: "type", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "topic", Type: field.TypeString, Default: ""},
		{Name: "tags", Type: field.TypeJSON},
		{Name: "official", Type: field.TypeBool, Default: false},
		{Name: "review_status", Type: field.TypeString},
		{Name: "quality", Type: field.TypeFloat64, Default: 1},
		{Name: "times_used", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	questionsTable = &schema.Table{
		Name:       "questions",
		Columns:    questionColumns,
		PrimaryKey: []*schema.Column{questionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "question_section_review_status", Columns: []*schema.Column{questionColumns[1], questionColumns[7]}},
			{Name: "question_section_difficulty", Columns: []*schema.Column{questionColumns[1], questionColumns[3]}},
		},
	}

	profileColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	profilesTable = &schema.Table{
		Name:       "profiles",
		Columns:    profileColumns,
		PrimaryKey: []*schema.Column{profileColumns[0]},
	}

	examConfigColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	examConfigsTable = &schema.Table{
		Name:       "exam_configs",
		Columns:    examConfigColumns,
		PrimaryKey: []*schema.Column{examConfigColumns[0]},
		Indexes: []*schema.Index{
			{Name: "examconfig_name", Unique: true, Columns: []*schema.Column{examConfigColumns[1]}},
		},
	}

	attemptColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "config_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "completed_at", Type: field.TypeInt64, Nullable: true},
		{Name: "total_score", Type: field.TypeInt, Nullable: true},
		{Name: "data", Type: field.TypeJSON},
	}
	attemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    attemptColumns,
		PrimaryKey: []*schema.Column{attemptColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "attempts_exam_configs_attempts",
				Columns:    []*schema.Column{attemptColumns[2]},
				RefColumns: []*schema.Column{examConfigColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "attempt_user_id_status", Columns: []*schema.Column{attemptColumns[1], attemptColumns[3]}},
		},
	}

	snapshotColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "current_score", Type: field.TypeInt},
		{Name: "attempts", Type: field.TypeInt},
		{Name: "refreshed_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	snapshotsTable = &schema.Table{
		Name:       "analytics_snapshots",
		Columns:    snapshotColumns,
		PrimaryKey: []*schema.Column{snapshotColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_current_score", Columns: []*schema.Column{snapshotColumns[1]}},
		},
	}

	attemptEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "attempt_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "action", Type: field.TypeString},
		{Name: "detail", Type: field.TypeString, Default: ""},
	}
	attemptEventsTable = &schema.Table{
		Name:       "attempt_events",
		Columns:    attemptEventColumns,
		PrimaryKey: []*schema.Column{attemptEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "attemptevent_attempt_id", Columns: []*schema.Column{attemptEventColumns[3]}},
		},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
	}

	// Tables holds every table the store migrates.
	Tables = []*schema.Table{
		questionsTable,
		profilesTable,
		examConfigsTable,
		attemptsTable,
		snapshotsTable,
		attemptEventsTable,
		llmEventsTable,
	}
)

func init() {
	attemptsTable.ForeignKeys[0].RefTable = examConfigsTable
}
