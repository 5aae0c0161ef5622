package saures

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"meterassist-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const metersResponse = `{
	"status": "ok",
	"data": {
		"sensors": [
			{
				"name": "controller-1",
				"meters": [
					{
						"meter_id": 101,
						"sn": "00123456",
						"meter_name": "Электричество",
						"type": {"number": 8, "name": "Электричество"},
						"vals": [10.1, 20.2, 30.3],
						"unit": "кВт·ч",
						"state": {"name": "Активен"}
					},
					{
						"meter_id": 102,
						"sn": "777",
						"meter_name": "ХВС",
						"type": {"number": 1, "name": "Холодная вода"},
						"vals": [42.0],
						"unit": "м³",
						"state": {"name": "Активен"}
					}
				]
			}
		]
	}
}`

func serveApi(t *testing.T) *Client {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(t, "test:scrapers/saures"))

	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, r.ParseForm())
		if r.PostForm.Get("email") != "resident@example.com" || r.PostForm.Get("password") != "hunter3" {
			fmt.Fprint(w, `{"status": "bad", "errors": [{"msg": "wrong credentials"}]}`)
			return
		}
		fmt.Fprint(w, `{"status": "ok", "data": {"sid": "sid-1"}}`)
	})
	mux.HandleFunc("GET /object/meters", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sid") != "sid-1" || r.URL.Query().Get("id") != "7" {
			fmt.Fprint(w, `{"status": "bad"}`)
			return
		}
		fmt.Fprint(w, metersResponse)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(ClientOptions{BaseUrl: server.URL})
}

func TestLogin(t *testing.T) {
	client := serveApi(t)

	err := client.Login(context.Background(), "resident@example.com", "hunter3")
	require.Nil(t, err)
	require.Equal(t, "sid-1", client.sid)
}

func TestLoginRejected(t *testing.T) {
	client := serveApi(t)

	err := client.Login(context.Background(), "resident@example.com", "wrong")
	require.ErrorIs(t, err, ErrIntegration)
}

func TestObjectMetersRequiresLogin(t *testing.T) {
	client := serveApi(t)

	_, err := client.ObjectMeters(context.Background(), 7)
	require.ErrorIs(t, err, ErrIntegration)
}

func TestObjectMeters(t *testing.T) {
	client := serveApi(t)
	ctx := context.Background()

	require.Nil(t, client.Login(ctx, "resident@example.com", "hunter3"))

	meters, err := client.ObjectMeters(ctx, 7)
	require.Nil(t, err)

	expected := []Meter{
		{
			MeterId:          101,
			SerialNumber:     "00123456",
			SerialNormalized: "123456",
			Name:             "Электричество",
			Type:             MeterType{Number: 8, Name: "Электричество"},
			Values:           []float64{10.1, 20.2, 30.3},
			Unit:             "кВт·ч",
			State:            MeterState{Name: "Активен"},
			SensorName:       "controller-1",
		},
		{
			MeterId:          102,
			SerialNumber:     "777",
			SerialNormalized: "777",
			Name:             "ХВС",
			Type:             MeterType{Number: 1, Name: "Холодная вода"},
			Values:           []float64{42.0},
			Unit:             "м³",
			State:            MeterState{Name: "Активен"},
			SensorName:       "controller-1",
		},
	}
	require.Empty(t, cmp.Diff(expected, meters))
}
