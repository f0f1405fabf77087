package domain

// OperationLogTimeLayout formats the timestamp that prefixes each log entry.
const OperationLogTimeLayout = "2006-01-02 15:04:05.000000"

// OperationLog collects human-readable descriptions of add events.
// The zero value is ready to use. It is never persisted.
type OperationLog struct {
	entries []string
}

func (l *OperationLog) Append(entry string) {
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (l *OperationLog) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *OperationLog) Len() int {
	return len(l.entries)
}
