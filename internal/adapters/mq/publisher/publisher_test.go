package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/pkg/logger"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisher(t *testing.T) {
	ctx := context.Background()
	ev := model.GameEvent{
		EventID: "ev-1",
		UserID:  "u1",
		GameID:  "g1",
		Kind:    model.EventGameRecorded,
		TS:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	Convey("Given a publisher over a connection", t, func() {
		fc := &fakeConn{}
		p := newNATSPublisher(fc, WithLogger(logger.Discard()))

		Convey("When an event is published", func() {
			err := p.Publish(ctx, ev)

			Convey("Then it lands on the kind subject as JSON", func() {
				So(err, ShouldBeNil)
				So(fc.subjects, ShouldResemble, []string{"carom.games." + string(model.EventGameRecorded)})
				var got model.GameEvent
				So(json.Unmarshal(fc.payloads[0], &got), ShouldBeNil)
				So(got.EventID, ShouldEqual, "ev-1")
				So(got.GameID, ShouldEqual, "g1")
			})
		})

		Convey("When the connection fails", func() {
			fc.err = errors.New("nats: connection closed")
			err := p.Publish(ctx, ev)

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, fc.err), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(p.Close(), ShouldBeNil)
			So(fc.drained, ShouldBeTrue)
		})
	})

	Convey("Given a custom subject prefix", t, func() {
		p := newNATSPublisher(&fakeConn{}, WithSubjectPrefix("club.a"), WithLogger(logger.Discard()))
		So(p.Subject(model.EventUserUpdated), ShouldEqual, "club.a."+string(model.EventUserUpdated))
	})
}

func TestConnect(t *testing.T) {
	Convey("Given no NATS url", t, func() {
		p, err := Connect("")

		Convey("Then a no-op publisher is returned", func() {
			So(err, ShouldBeNil)
			So(p, ShouldHaveSameTypeAs, Noop{})
			So(p.Publish(context.Background(), model.GameEvent{}), ShouldBeNil)
			So(p.Close(), ShouldBeNil)
		})
	})
}
