package model

// Component is one page shown by the app.
type Component interface {
	Name() string
	Start()
	Stop()
}

// StackListener listens to stack events
type StackListener interface {
	StackPushed(Component)
	StackPopped(old, new Component)
}

// Stack keeps the pages the user navigated through. Only the top page runs.
// It is used from the UI goroutine only.
type Stack struct {
	components []Component
	listeners  []StackListener
}

// NewStack returns a new stack
func NewStack() *Stack {
	return &Stack{}
}

// AddListener adds a stack listener
func (s *Stack) AddListener(l StackListener) {
	s.listeners = append(s.listeners, l)
}

// Push stops the current page and starts c on top of it.
func (s *Stack) Push(c Component) {
	if top := s.Top(); top != nil {
		top.Stop()
	}
	s.components = append(s.components, c)
	c.Start()

	for _, l := range s.listeners {
		l.StackPushed(c)
	}
}

// Pop stops the top page and resumes the one below. The last page is never
// popped.
func (s *Stack) Pop() (Component, bool) {
	if len(s.components) < 2 {
		return nil, false
	}

	c := s.components[len(s.components)-1]
	c.Stop()
	s.components = s.components[:len(s.components)-1]
	top := s.Top()
	top.Start()

	for _, l := range s.listeners {
		l.StackPopped(c, top)
	}

	return c, true
}

// Top returns the top component
func (s *Stack) Top() Component {
	if len(s.components) == 0 {
		return nil
	}
	return s.components[len(s.components)-1]
}

// Clear stops the top page and drops every page.
func (s *Stack) Clear() {
	if top := s.Top(); top != nil {
		top.Stop()
	}
	s.components = nil
}

// Flatten returns all component names as a slice
func (s *Stack) Flatten() []string {
	ss := make([]string, len(s.components))
	for i, c := range s.components {
		ss[i] = c.Name()
	}
	return ss
}
