package eventset

// Builtin sets available by name without loading any file. Applications
// opt in through PROVIDE_ENABLED_EVENT_SETS.

func httpSet() Set {
	return Set{
		Name: "http",
		Rules: []Rule{
			{FieldName: "http_method", ValuePattern: "GET", Emoji: "📥", Label: "GET"},
			{FieldName: "http_method", ValuePattern: "POST", Emoji: "📤", Label: "POST"},
			{FieldName: "http_method", ValuePattern: "PUT", Emoji: "📝", Label: "PUT"},
			{FieldName: "http_method", ValuePattern: "DELETE", Emoji: "🗑️", Label: "DELETE"},
			{FieldName: "http_status", ValuePattern: "2*", Emoji: "✅", Label: "ok"},
			{FieldName: "http_status", ValuePattern: "4*", Emoji: "⚠️", Label: "client error"},
			{FieldName: "http_status", ValuePattern: "5*", Emoji: "🔥", Label: "server error"},
		},
	}
}

func databaseSet() Set {
	return Set{
		Name: "database",
		Rules: []Rule{
			{FieldName: "db_operation", ValuePattern: "select", Emoji: "🔍", Label: "select"},
			{FieldName: "db_operation", ValuePattern: "insert", Emoji: "➕", Label: "insert"},
			{FieldName: "db_operation", ValuePattern: "update", Emoji: "✏️", Label: "update"},
			{FieldName: "db_operation", ValuePattern: "delete", Emoji: "➖", Label: "delete"},
			{FieldName: "db_error", ValuePattern: "*", Emoji: "💥", Label: "db error", ExtraFields: map[string]any{"outcome": "failure"}},
		},
	}
}

func taskSet() Set {
	return Set{
		Name: "task",
		Rules: []Rule{
			{FieldName: "task_status", ValuePattern: "started", Emoji: "🚀", Label: "started"},
			{FieldName: "task_status", ValuePattern: "completed", Emoji: "🏁", Label: "completed"},
			{FieldName: "task_status", ValuePattern: "failed", Emoji: "❌", Label: "failed"},
			{FieldName: "task_status", ValuePattern: "retrying", Emoji: "🔄", Label: "retrying"},
		},
	}
}

// builtinSets returns the sets shipped with the library, keyed by name.
func builtinSets() map[string]Set {
	return map[string]Set{
		"http":     httpSet(),
		"database": databaseSet(),
		"task":     taskSet(),
	}
}
