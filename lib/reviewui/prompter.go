// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package reviewui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// promptMsg asks the operator a yes/no question. The answer goes to
// reply exactly once.
type promptMsg struct {
	text  string
	reply chan<- bool
}

// Prompter is a review.Confirmer that asks inside the running program.
// Confirm blocks the calling command until the operator answers.
type Prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewPrompter returns a prompter that declines until attached.
func NewPrompter() *Prompter { return &Prompter{} }

// Attach routes prompts to program.
func (p *Prompter) Attach(program *tea.Program) {
	p.mu.Lock()
	p.send = program.Send
	p.mu.Unlock()
}

// Confirm implements review.Confirmer.
func (p *Prompter) Confirm(prompt string) bool {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return false
	}
	reply := make(chan bool, 1)
	send(promptMsg{text: prompt, reply: reply})
	return <-reply
}
