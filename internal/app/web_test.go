package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/gps"
	"github.com/relabs-tech/compass_camera/internal/imu"
	"github.com/relabs-tech/compass_camera/internal/orientation"
	"github.com/relabs-tech/compass_camera/internal/preview"
)

func newTestWebServer(t *testing.T) (*webServer, *httptest.Server) {
	t.Helper()
	static := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>compass</html>"), 0o644), test.ShouldBeNil)

	cfg := &config.Config{Camera: testCamera, Web: config.WebConfig{StaticDir: static}}
	// Websocket handlers can outlive the test, so they must not log through t.
	srv := newWebServer(cfg, orientation.DefaultCalculator, zap.NewNop().Sugar())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		test.That(t, json.NewDecoder(resp.Body).Decode(v), test.ShouldBeNil)
	}
	return resp.StatusCode
}

func TestWebHeadingAPI(t *testing.T) {
	srv, ts := newTestWebServer(t)

	test.That(t, getJSON(t, ts.URL+"/api/heading", nil), test.ShouldEqual, http.StatusServiceUnavailable)
	test.That(t, getJSON(t, ts.URL+"/api/gps", nil), test.ShouldEqual, http.StatusServiceUnavailable)

	srv.setHeading(imu.HeadingReport{Degrees: 270, Cardinal: "west", Valid: true})
	srv.setFix(gps.Fix{CourseDeg: 12, Validity: "A"})

	var r imu.HeadingReport
	test.That(t, getJSON(t, ts.URL+"/api/heading", &r), test.ShouldEqual, http.StatusOK)
	test.That(t, r.Degrees, test.ShouldEqual, 270)
	test.That(t, r.Cardinal, test.ShouldEqual, "west")

	var f gps.Fix
	test.That(t, getJSON(t, ts.URL+"/api/gps", &f), test.ShouldEqual, http.StatusOK)
	test.That(t, f.CourseDeg, test.ShouldEqual, 12.0)
}

func TestWebPreviewAPI(t *testing.T) {
	_, ts := newTestWebServer(t)

	var p PreviewResponse
	test.That(t, getJSON(t, ts.URL+"/api/preview", &p), test.ShouldEqual, http.StatusOK)
	test.That(t, p.Screen, test.ShouldResemble, preview.Size{Width: 800, Height: 480})
	test.That(t, p.Preview, test.ShouldResemble, preview.Size{Width: 480, Height: 320})

	p = PreviewResponse{}
	test.That(t, getJSON(t, ts.URL+"/api/preview?width=480&height=640", &p), test.ShouldEqual, http.StatusOK)
	test.That(t, p.Screen, test.ShouldResemble, preview.Size{Width: 640, Height: 480})
	test.That(t, p.Preview, test.ShouldResemble, preview.Size{Width: 640, Height: 480})

	p = PreviewResponse{}
	test.That(t, getJSON(t, ts.URL+"/api/preview?portrait=true", &p), test.ShouldEqual, http.StatusOK)
	test.That(t, p.Portrait, test.ShouldBeTrue)
	test.That(t, p.Preview, test.ShouldResemble, preview.Size{Width: 240, Height: 320})

	test.That(t, getJSON(t, ts.URL+"/api/preview?width=abc&height=1", nil), test.ShouldEqual, http.StatusBadRequest)
	test.That(t, getJSON(t, ts.URL+"/api/preview?width=640", nil), test.ShouldEqual, http.StatusBadRequest)
	test.That(t, getJSON(t, ts.URL+"/api/preview?portrait=maybe", nil), test.ShouldEqual, http.StatusBadRequest)
}

func TestWebStatic(t *testing.T) {
	_, ts := newTestWebServer(t)

	resp, err := http.Get(ts.URL + "/")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(b), test.ShouldContainSubstring, "compass")
}

func readWS(t *testing.T, conn *websocket.Conn) WSResponse {
	t.Helper()
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	var msg WSResponse
	test.That(t, conn.ReadJSON(&msg), test.ShouldBeNil)
	return msg
}

func TestWebSocket(t *testing.T) {
	srv, ts := newTestWebServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	defer conn.Close()

	send := func(m WSMessage) {
		test.That(t, conn.WriteJSON(m), test.ShouldBeNil)
	}
	mag := imu.Sample{Source: "browser", Type: "magnetic", X: -40}
	acc := imu.Sample{Source: "browser", Type: "accelerometer", Y: 9.81}

	// The magnetic sample alone produces nothing; the acceleration
	// sample completes the pair.
	send(WSMessage{Action: "sample", Sample: &mag})
	send(WSMessage{Action: "sample", Sample: &acc})

	msg := readWS(t, conn)
	test.That(t, msg.Type, test.ShouldEqual, "heading")
	test.That(t, msg.Source, test.ShouldEqual, "local")
	test.That(t, msg.Heading, test.ShouldNotBeNil)
	test.That(t, msg.Heading.Cardinal, test.ShouldEqual, "east")

	srv.setHeading(imu.HeadingReport{Degrees: 180, Cardinal: "south", Valid: true})
	msg = readWS(t, conn)
	test.That(t, msg.Type, test.ShouldEqual, "heading")
	test.That(t, msg.Source, test.ShouldEqual, "mqtt")
	test.That(t, msg.Heading.Degrees, test.ShouldEqual, 180)

	srv.setFix(gps.Fix{CourseDeg: 90, Validity: "A"})
	msg = readWS(t, conn)
	test.That(t, msg.Type, test.ShouldEqual, "gps")
	test.That(t, msg.Fix.CourseDeg, test.ShouldEqual, 90.0)

	send(WSMessage{Action: "dance"})
	msg = readWS(t, conn)
	test.That(t, msg.Type, test.ShouldEqual, "error")
	test.That(t, msg.Message, test.ShouldContainSubstring, "dance")

	// After a reset the session needs both sensors again.
	send(WSMessage{Action: "reset"})
	send(WSMessage{Action: "sample", Sample: &acc})
	send(WSMessage{Action: "sample"})
	msg = readWS(t, conn)
	test.That(t, msg.Type, test.ShouldEqual, "error")
	test.That(t, msg.Message, test.ShouldContainSubstring, "without sample")
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketOverflowingSample(t *testing.T) {
	_, ts := newTestWebServer(t)
	conn := dialWS(t, ts)

	huge := imu.Sample{Source: "browser", Type: "magnetic", X: 1.7e308, Y: 1.7e308, Z: 1e300}
	acc := imu.Sample{Source: "browser", Type: "accelerometer", Y: 9.81}
	test.That(t, conn.WriteJSON(WSMessage{Action: "sample", Sample: &huge}), test.ShouldBeNil)
	test.That(t, conn.WriteJSON(WSMessage{Action: "sample", Sample: &acc}), test.ShouldBeNil)

	msg := readWS(t, conn)
	test.That(t, msg.Type, test.ShouldEqual, "heading")
	test.That(t, msg.Heading.Valid, test.ShouldBeFalse)
	test.That(t, msg.Heading.Degrees, test.ShouldEqual, 0)
	test.That(t, msg.Heading.Cardinal, test.ShouldEqual, "north")

	// The connection survives and recovers with a sane reading.
	mag := imu.Sample{Source: "browser", Type: "magnetic", X: -40}
	test.That(t, conn.WriteJSON(WSMessage{Action: "sample", Sample: &mag}), test.ShouldBeNil)
	msg = readWS(t, conn)
	test.That(t, msg.Heading.Valid, test.ShouldBeTrue)
	test.That(t, msg.Heading.Cardinal, test.ShouldEqual, "east")
}

func TestWebSocketReadLimit(t *testing.T) {
	_, ts := newTestWebServer(t)
	conn := dialWS(t, ts)

	big := imu.Sample{Source: strings.Repeat("x", 2*wsReadLimit), Type: "magnetic"}
	test.That(t, conn.WriteJSON(WSMessage{Action: "sample", Sample: &big}), test.ShouldBeNil)

	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	var msg WSResponse
	err := conn.ReadJSON(&msg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), test.ShouldBeTrue)
}
