package events

import "sync"

const (
	passiveMarker = '&'
	onceMarker    = '~'
	captureMarker = '!'
)

// Event is a listener name with its modifier markers parsed out.
type Event struct {
	Name    string
	Once    bool
	Capture bool
	Passive bool
}

var parsed sync.Map // string -> Event

// Parse strips modifier markers from name. Results are cached per name.
func Parse(name string) Event {
	if ev, ok := parsed.Load(name); ok {
		return ev.(Event)
	}
	ev := parse(name)
	parsed.Store(name, ev)
	return ev
}

func parse(name string) Event {
	var ev Event
	// Once is prefixed last by template compilers but checked before capture.
	if len(name) > 0 && name[0] == passiveMarker {
		ev.Passive = true
		name = name[1:]
	}
	if len(name) > 0 && name[0] == onceMarker {
		ev.Once = true
		name = name[1:]
	}
	if len(name) > 0 && name[0] == captureMarker {
		ev.Capture = true
		name = name[1:]
	}
	ev.Name = name
	return ev
}

// Format is the inverse of Parse.
func Format(ev Event) string {
	prefix := make([]byte, 0, 3)
	if ev.Passive {
		prefix = append(prefix, passiveMarker)
	}
	if ev.Once {
		prefix = append(prefix, onceMarker)
	}
	if ev.Capture {
		prefix = append(prefix, captureMarker)
	}
	return string(prefix) + ev.Name
}
