package notify

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
)

func quietCenter() *Center {
	return NewCenter(
		WithLogger(slog.New(slog.DiscardHandler)),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
}

func TestCenter_PostReachesObservers(t *testing.T) {
	c := quietCenter()

	var got []Notification
	c.Observe("login", func(n Notification) { got = append(got, n) })
	c.Observe("logout", func(n Notification) { t.Error("unexpected logout notification") })

	posted := c.Post("login", "user-1", map[string]any{"method": "password"})

	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].ID != posted.ID {
		t.Errorf("expected id %s, got %s", posted.ID, got[0].ID)
	}
	if _, err := uuid.Parse(posted.ID); err != nil {
		t.Errorf("expected uuid id, got %q", posted.ID)
	}
	if got[0].Object != "user-1" || got[0].UserInfo["method"] != "password" {
		t.Errorf("unexpected payload %+v", got[0])
	}
	if !got[0].PostedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected timestamp %v", got[0].PostedAt)
	}
}

func TestCenter_PostWithoutObservers(t *testing.T) {
	c := quietCenter()

	n := c.Post("nobody", nil, nil)
	if n.Name != "nobody" {
		t.Errorf("expected notification to be returned, got %+v", n)
	}
}

func TestCenter_Unsubscribe(t *testing.T) {
	c := quietCenter()

	calls := 0
	sub := c.Observe("refresh", func(Notification) { calls++ })
	c.Post("refresh", nil, nil)
	sub.Unsubscribe()
	c.Post("refresh", nil, nil)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestCenter_RemoveObservers(t *testing.T) {
	c := quietCenter()

	a, b := 0, 0
	c.Observe("a", func(Notification) { a++ })
	c.Observe("b", func(Notification) { b++ })

	c.RemoveObservers("a")
	c.Post("a", nil, nil)
	c.Post("b", nil, nil)

	if a != 0 || b != 1 {
		t.Errorf("expected a=0 b=1, got a=%d b=%d", a, b)
	}

	c.RemoveAll()
	c.Post("b", nil, nil)
	if b != 1 {
		t.Errorf("expected no delivery after RemoveAll, got %d", b)
	}

	// observing again after removal works
	c.Observe("a", func(Notification) { a++ })
	c.Post("a", nil, nil)
	if a != 1 {
		t.Errorf("expected re-observed name to deliver, got %d", a)
	}
}

func TestAssembly(t *testing.T) {
	c := sdkcommon.NewContainer()
	if err := c.Apply(Assembly(WithLogger(slog.New(slog.DiscardHandler)))); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	first := sdkcommon.MustResolve[Service](c, sdkcommon.As(sdkcommon.Singleton))
	second := sdkcommon.MustResolve[Service](c)
	if first != second {
		t.Error("expected singleton notification service")
	}

	calls := 0
	first.Observe("x", func(Notification) { calls++ })
	if err := c.Dispose(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first.Post("x", nil, nil)
	if calls != 0 {
		t.Errorf("expected observers removed on dispose, got %d calls", calls)
	}
}
