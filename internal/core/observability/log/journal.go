package log

import (
	"fmt"
	"strings"
	"time"
)

var _ Log = (*Journal)(nil)

// Entry is one diagnostic line recorded by a Journal.
type Entry struct {
	Level   Level
	Message string
	Fields  []Field
	Time    time.Time
}

// String renders the entry as "[LEVEL] message key=value ...".
func (e Entry) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(e.Level.String())
	b.WriteString("] ")
	b.WriteString(e.Message)
	for _, f := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(fieldValue(f))
	}
	return b.String()
}

type journalBuffer struct {
	entries []Entry
	level   Level
}

// Journal is an explicit diagnostic sink. It keeps every entry at or above
// its level until Drain is called and forwards each entry to an optional
// downstream Log. Children created by With share the parent's buffer.
//
// A Journal is not safe for concurrent use; it follows the single-writer
// model of the navigation layer.
type Journal struct {
	buf    *journalBuffer
	fields []Field
	next   Log
	now    func() time.Time
}

// NewJournal creates a journal recording Info and above. next may be nil.
func NewJournal(next Log) *Journal {
	return &Journal{
		buf:  &journalBuffer{level: LevelInfo},
		next: next,
		now:  time.Now,
	}
}

func (j *Journal) Log(level Level, msg string, fields ...Field) {
	if level != LevelSilent && level >= j.buf.level && j.buf.level != LevelSilent {
		all := make([]Field, 0, len(j.fields)+len(fields))
		all = append(all, j.fields...)
		all = append(all, fields...)
		j.buf.entries = append(j.buf.entries, Entry{
			Level:   level,
			Message: msg,
			Fields:  all,
			Time:    j.now(),
		})
	}
	if j.next != nil {
		j.next.Log(level, msg, fields...)
	}
}

func (j *Journal) Debug(msg string, fields ...Field) { j.Log(LevelDebug, msg, fields...) }
func (j *Journal) Info(msg string, fields ...Field)  { j.Log(LevelInfo, msg, fields...) }
func (j *Journal) Warn(msg string, fields ...Field)  { j.Log(LevelWarn, msg, fields...) }
func (j *Journal) Error(msg string, fields ...Field) { j.Log(LevelError, msg, fields...) }

func (j *Journal) With(fields ...Field) Log {
	child := &Journal{
		buf:    j.buf,
		fields: append(append([]Field(nil), j.fields...), fields...),
		now:    j.now,
	}
	if j.next != nil {
		child.next = j.next.With(fields...)
	}
	return child
}

func (j *Journal) SetLevel(level Level) {
	j.buf.level = level
}

func (j *Journal) GetLevel() Level {
	return j.buf.level
}

// Len returns the number of pending entries.
func (j *Journal) Len() int {
	return len(j.buf.entries)
}

// Entries returns a copy of the pending entries without clearing them.
func (j *Journal) Entries() []Entry {
	return append([]Entry(nil), j.buf.entries...)
}

// Drain returns every pending entry, one per line, and clears the journal.
func (j *Journal) Drain() string {
	lines := make([]string, len(j.buf.entries))
	for i, e := range j.buf.entries {
		lines[i] = e.String()
	}
	j.buf.entries = j.buf.entries[:0]
	return strings.Join(lines, "\n")
}

func fieldValue(f Field) string {
	switch v := f.Value.(type) {
	case string:
		return v
	case error:
		if v == nil {
			return "<nil>"
		}
		return v.Error()
	case float32:
		return fmt.Sprintf("%.2f", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprint(v)
	}
}

type nopLog struct{}

// Nop returns a Log that discards everything.
func Nop() Log { return nopLog{} }

func (nopLog) Log(Level, string, ...Field) {}
func (nopLog) Debug(string, ...Field)      {}
func (nopLog) Info(string, ...Field)       {}
func (nopLog) Warn(string, ...Field)       {}
func (nopLog) Error(string, ...Field)      {}
func (n nopLog) With(...Field) Log         { return n }
func (nopLog) SetLevel(Level)              {}
func (nopLog) GetLevel() Level             { return LevelSilent }
