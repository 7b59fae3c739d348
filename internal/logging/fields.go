package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Tool adds a tool id field.
func Tool(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", id)
	}
}

// File adds a file name field.
func File(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("file", name)
	}
}

// Page adds a 1-based page number field.
func Page(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("page", n)
	}
}

// Pages adds a page count field.
func Pages(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pages", n)
	}
}

// Annotation adds an annotation id field.
func Annotation(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("annotation", id)
	}
}

// Count adds a generic count field.
func Count(name string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(name, n)
	}
}

// Str adds a string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Bytes adds a byte size field.
func Bytes(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("bytes", n)
	}
}

// Generation adds a session generation field.
func Generation(g uint64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("generation", int64(g))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
