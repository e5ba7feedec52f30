package bert

// StartSession acquires a long-lived execution session bound to the model
// graph. Subsequent embedding calls reuse it instead of creating a one-off
// session each time. Starting while a session is already active is an
// error; the session is exclusively owned by this handle.
func (b *Bert) StartSession() error {
	if b.session != nil {
		return ErrSessionActive
	}
	session, err := b.newSession()
	if err != nil {
		return err
	}
	b.session = session
	b.logger.Debug("Execution session started")
	return nil
}

// EndSession releases the live session, if any. Embedding calls made
// afterwards fall back to one-off sessions.
func (b *Bert) EndSession() error {
	if b.session == nil {
		return nil
	}
	err := b.session.Destroy()
	b.session = nil
	b.logger.Debug("Execution session released")
	return err
}

// WithSession runs fn with a live session, releasing it afterwards even if
// fn fails.
func (b *Bert) WithSession(fn func() error) error {
	if err := b.StartSession(); err != nil {
		return err
	}
	defer b.EndSession()
	return fn()
}

// Close releases any live session. The graph and tokenizer need no explicit
// teardown.
func (b *Bert) Close() error {
	return b.EndSession()
}
