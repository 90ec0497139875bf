package selection

import "testing"

func TestHubDeliversLatestDocument(t *testing.T) {
	h := NewHub()
	updates, cancel := h.Subscribe("1")
	other, cancelOther := h.Subscribe("2")
	defer cancelOther()

	h.Publish(&Document{StudentID: "1", Version: 1})
	h.Publish(&Document{StudentID: "1", Version: 2})

	if doc := <-updates; doc.Version != 2 {
		t.Errorf("got version %d, want the latest", doc.Version)
	}
	select {
	case doc := <-other:
		t.Errorf("student 2 received %+v", doc)
	default:
	}

	if n := h.Subscribers("1"); n != 1 {
		t.Errorf("subscribers = %d", n)
	}
	cancel()
	cancel()
	if n := h.Subscribers("1"); n != 0 {
		t.Errorf("subscribers after cancel = %d", n)
	}
	h.Publish(&Document{StudentID: "1", Version: 3})
}
