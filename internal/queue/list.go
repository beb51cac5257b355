package queue

import "context"

// LengthReporter is anything whose queue length can be introspected.
// Health checks and the depth sampler depend on this rather than on the
// concrete queue services.
type LengthReporter interface {
	Name() string
	Length(ctx context.Context) (int64, error)
}

// List is a read-only view of an arbitrary list, used for dead-letter and
// redirect lists that have no service of their own.
type List struct {
	client *Client
	name   string
}

func (c *Client) List(name string) List {
	return List{client: c, name: name}
}

func (l List) Name() string { return l.name }

func (l List) Length(ctx context.Context) (int64, error) {
	return l.client.Length(ctx, l.name)
}

// Entries returns the raw contents, head first.
func (l List) Entries(ctx context.Context) ([]string, error) {
	return l.client.Range(ctx, l.name)
}

var (
	_ LengthReporter = List{}
	_ LengthReporter = (*ProcessedQueue)(nil)
	_ LengthReporter = (*RegistrationQueue[struct{}])(nil)
)
