package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type bookingFixture struct {
	env         *testEnv
	client      account
	therapist   account
	therapistID primitive.ObjectID
	date        string
}

func newBookingFixture(t *testing.T, opts ...func(*handlers.Deps)) *bookingFixture {
	env := newEnv(t, opts...)
	f := &bookingFixture{
		env:       env,
		client:    env.signup("Ana", "ana@example.com", models.RoleClient),
		therapist: env.signup("Dr. Rivera", "rivera@example.com", models.RoleTherapist),
		date:      daysFromNow(1),
	}
	f.therapistID = env.onboard(f.therapist)
	return f
}

func (f *bookingFixture) book(slot string, extra map[string]interface{}) (int, map[string]interface{}) {
	body := map[string]interface{}{
		"therapistId": f.therapistID.Hex(),
		"date":        f.date,
		"time":        slot,
	}
	for k, v := range extra {
		body[k] = v
	}
	rec := f.env.do(http.MethodPost, "/api/appointments", body, f.client.token)
	if rec.Code != http.StatusCreated {
		return rec.Code, map[string]interface{}{"error": errorOf(f.env.t, rec)}
	}
	return rec.Code, decode(f.env.t, rec)["appointment"].(map[string]interface{})
}

// mustBook books slot and returns the appointment id.
func (f *bookingFixture) mustBook(t *testing.T, slot string) string {
	t.Helper()
	code, appt := f.book(slot, nil)
	require.Equal(t, http.StatusCreated, code, appt)
	return appt["_id"].(string)
}

func TestBookAppointment(t *testing.T) {
	f := newBookingFixture(t)

	code, appt := f.book("10:00", map[string]interface{}{"sessionType": "Couples", "endTime": "11:00"})
	require.Equal(t, http.StatusCreated, code, appt)
	assert.Equal(t, "scheduled", appt["status"])
	assert.Equal(t, "couples", appt["type"])
	assert.Equal(t, "10:00", appt["time"])
	assert.Equal(t, "11:00", appt["endTime"])
	assert.Equal(t, "Ana", appt["client"].(map[string]interface{})["name"])
	assert.Equal(t, "Dr. Rivera", appt["therapist"].(map[string]interface{})["name"])

	code, appt = f.book("10:00", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Time slot not available", appt["error"])

	code, _ = f.book("11:00", nil)
	assert.Equal(t, http.StatusCreated, code, "another slot on the same day is free")
}

func TestBookAppointmentValidation(t *testing.T) {
	f := newBookingFixture(t)

	rec := f.env.do(http.MethodPost, "/api/appointments", map[string]interface{}{
		"therapistId": f.therapistID.Hex(),
		"date":        f.date,
	}, f.client.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Therapist, date, and time are required", errorOf(t, rec))

	rec = f.env.do(http.MethodPost, "/api/appointments", map[string]interface{}{
		"therapistId": "nope",
		"date":        f.date,
		"time":        "10:00",
	}, f.client.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid therapist ID", errorOf(t, rec))

	rec = f.env.do(http.MethodPost, "/api/appointments", map[string]interface{}{
		"therapistId": f.therapistID.Hex(),
		"date":        f.date,
		"time":        "10:00",
	}, f.therapist.token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only clients can access this resource", errorOf(t, rec))

	f.date = daysFromNow(-1)
	code, body := f.book("10:00", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot book an appointment in the past", body["error"])

	f.date = "next tuesday"
	code, _ = f.book("10:00", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	f.date = daysFromNow(1)
	code, body = f.book("10:00", map[string]interface{}{"type": "group-therapy"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid session type", body["error"])
}

func TestBookAppointmentTherapistChecks(t *testing.T) {
	f := newBookingFixture(t)

	t.Run("not onboarded", func(t *testing.T) {
		other := f.env.signup("Dr. Chen", "chen@example.com", models.RoleTherapist)
		rec := f.env.do(http.MethodPost, "/api/therapists/ensure", nil, other.token)
		require.Equal(t, http.StatusCreated, rec.Code)
		id := decode(t, rec)["therapist"].(map[string]interface{})["_id"].(string)

		rec = f.env.do(http.MethodPost, "/api/appointments", map[string]interface{}{
			"therapistId": id, "date": f.date, "time": "10:00",
		}, f.client.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Therapist is not accepting bookings yet", errorOf(t, rec))
	})

	t.Run("unknown therapist", func(t *testing.T) {
		rec := f.env.do(http.MethodPost, "/api/appointments", map[string]interface{}{
			"therapistId": primitive.NewObjectID().Hex(), "date": f.date, "time": "10:00",
		}, f.client.token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unavailable weekday", func(t *testing.T) {
		day := time.Now().UTC().AddDate(0, 0, 1)
		other := f.env.signup("Dr. Osei", "osei@example.com", models.RoleTherapist)
		id := f.env.onboard(other, day.AddDate(0, 0, 1).Weekday().String())

		rec := f.env.do(http.MethodPost, "/api/appointments", map[string]interface{}{
			"therapistId": id.Hex(), "date": day.Format("2006-01-02"), "time": "10:00",
		}, f.client.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Therapist is not available on this day", errorOf(t, rec))
	})
}

func TestBookAppointmentSlotBusy(t *testing.T) {
	f := newBookingFixture(t)
	f.env.locker.Hold(f.therapistID.Hex() + ":" + f.date + ":10:00")

	code, body := f.book("10:00", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Slot is being booked, please retry", body["error"])

	code, _ = f.book("11:00", nil)
	assert.Equal(t, http.StatusCreated, code)
}

func TestAppointmentNotesAreEncrypted(t *testing.T) {
	f := newBookingFixture(t)

	code, appt := f.book("10:00", map[string]interface{}{"notes": "Struggling with sleep"})
	require.Equal(t, http.StatusCreated, code, appt)
	assert.Equal(t, "Struggling with sleep", appt["notes"])

	id, err := primitive.ObjectIDFromHex(appt["_id"].(string))
	require.NoError(t, err)
	stored, err := f.env.store.GetAppointmentByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Notes)
	assert.NotContains(t, stored.Notes, "sleep")

	rec := f.env.do(http.MethodGet, "/api/appointments/"+id.Hex(), nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Struggling with sleep", decode(t, rec)["appointment"].(map[string]interface{})["notes"])
}

func TestAppointmentStatusChanges(t *testing.T) {
	f := newBookingFixture(t)
	id := f.mustBook(t, "10:00")
	path := "/api/appointments/" + id

	rec := f.env.do(http.MethodPut, path+"/confirm", nil, f.client.token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", errorOf(t, rec))

	rec = f.env.do(http.MethodPut, path+"/confirm", nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Appointment confirmed", body["message"])
	assert.Equal(t, "confirmed", body["appointment"].(map[string]interface{})["status"])

	rec = f.env.do(http.MethodPatch, path+"/status", map[string]string{"status": "bogus"}, f.therapist.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", errorOf(t, rec))

	rec = f.env.do(http.MethodPatch, path+"/status", map[string]string{"status": "Cancelled"}, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Appointment cancelled", decode(t, rec)["message"])

	// repeating the current status is a no-op
	rec = f.env.do(http.MethodDelete, path, nil, f.client.token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.env.do(http.MethodPut, path+"/complete", nil, f.therapist.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot change the status of a completed or cancelled appointment", errorOf(t, rec))

	// a cancelled booking frees its slot
	code, _ := f.book("10:00", nil)
	assert.Equal(t, http.StatusCreated, code)
}

func TestAppointmentAccessIsLimitedToParties(t *testing.T) {
	f := newBookingFixture(t)
	id := f.mustBook(t, "10:00")
	path := "/api/appointments/" + id

	bo := f.env.signup("Bo", "bo@example.com", models.RoleClient)
	chen := f.env.signup("Dr. Chen", "chen@example.com", models.RoleTherapist)
	f.env.onboard(chen)

	for _, tok := range []string{bo.token, chen.token} {
		assert.Equal(t, http.StatusForbidden, f.env.do(http.MethodGet, path, nil, tok).Code)
		assert.Equal(t, http.StatusForbidden, f.env.do(http.MethodPut, path+"/cancel", nil, tok).Code)
	}
	assert.Equal(t, http.StatusOK, f.env.do(http.MethodGet, path, nil, f.client.token).Code)
	assert.Equal(t, http.StatusOK, f.env.do(http.MethodGet, path, nil, f.therapist.token).Code)

	rec := f.env.do(http.MethodGet, "/api/appointments/"+primitive.NewObjectID().Hex(), nil, f.client.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Appointment not found", errorOf(t, rec))
}

func TestRescheduleAppointment(t *testing.T) {
	f := newBookingFixture(t)
	first := f.mustBook(t, "10:00")
	f.mustBook(t, "11:00")

	rec := f.env.do(http.MethodPut, "/api/appointments/"+first+"/reschedule", map[string]string{
		"date": f.date, "time": "11:00",
	}, f.client.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Time slot not available", errorOf(t, rec))

	next := daysFromNow(2)
	rec = f.env.do(http.MethodPut, "/api/appointments/"+first+"/reschedule", map[string]string{
		"date": next, "time": "14:00",
	}, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	appt := decode(t, rec)["appointment"].(map[string]interface{})
	assert.Equal(t, "rescheduled", appt["status"])
	assert.Equal(t, "14:00", appt["time"])

	// same slot again is allowed for the appointment itself
	rec = f.env.do(http.MethodPut, "/api/appointments/"+first+"/reschedule", map[string]string{
		"date": next, "time": "14:00",
	}, f.client.token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the old slot is free again
	code, _ := f.book("10:00", nil)
	assert.Equal(t, http.StatusCreated, code)

	rec = f.env.do(http.MethodPut, "/api/appointments/"+first+"/reschedule", map[string]string{"date": next}, f.client.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Time is required", errorOf(t, rec))
}

func TestListAppointments(t *testing.T) {
	f := newBookingFixture(t)
	f.mustBook(t, "11:00")
	f.mustBook(t, "10:00")
	cancelled := f.mustBook(t, "12:00")
	require.Equal(t, http.StatusOK, f.env.do(http.MethodPut, "/api/appointments/"+cancelled+"/cancel", nil, f.client.token).Code)

	rec := f.env.do(http.MethodGet, "/api/appointments", nil, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["appointments"], 3)

	rec = f.env.do(http.MethodGet, "/api/appointments/upcoming", nil, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code)
	upcoming := decode(t, rec)["appointments"].([]interface{})
	require.Len(t, upcoming, 2)
	assert.Equal(t, "10:00", upcoming[0].(map[string]interface{})["time"], "soonest first")

	rec = f.env.do(http.MethodGet, "/api/appointments/client/scheduled", nil, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["appointments"], 2)

	rec = f.env.do(http.MethodGet, "/api/appointments/therapist/upcoming", nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["appointments"], 2)

	rec = f.env.do(http.MethodGet, "/api/appointments/therapist/upcoming", nil, f.client.token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	bare := f.env.signup("Dr. Chen", "chen@example.com", models.RoleTherapist)
	rec = f.env.do(http.MethodGet, "/api/appointments", nil, bare.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Therapist profile not found", errorOf(t, rec))
}

func TestTherapistSchedule(t *testing.T) {
	f := newBookingFixture(t)
	f.mustBook(t, "10:00")
	f.mustBook(t, "13:00")
	path := "/api/appointments/therapist/" + f.therapistID.Hex()

	rec := f.env.do(http.MethodGet, path, nil, f.client.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Date is required", errorOf(t, rec))

	rec = f.env.do(http.MethodGet, path+"?date="+f.date, nil, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []interface{}{"10:00", "13:00"}, body["bookedSlots"])
	assert.NotContains(t, body, "appointments")

	rec = f.env.do(http.MethodGet, path, nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["appointments"], 2)

	rec = f.env.do(http.MethodGet, "/api/therapists/"+f.therapistID.Hex()+"/availability?date="+f.date, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode(t, rec)["availableSlots"].([]interface{})
	assert.Len(t, slots, 6)
	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "13:00")

	rec = f.env.do(http.MethodGet, "/api/therapists/"+f.therapistID.Hex()+"/availability?date="+daysFromNow(-3), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["availableSlots"])
}

func TestCompletedAppointmentKeepsSlot(t *testing.T) {
	f := newBookingFixture(t)
	id := f.mustBook(t, "10:00")
	rec := f.env.do(http.MethodPut, "/api/appointments/"+id+"/complete", nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.env.do(http.MethodGet, "/api/therapists/"+f.therapistID.Hex()+"/availability?date="+f.date, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode(t, rec)["availableSlots"].([]interface{})
	assert.Len(t, slots, 7)
	assert.NotContains(t, slots, "10:00")

	rec = f.env.do(http.MethodGet, "/api/appointments/therapist/"+f.therapistID.Hex()+"?date="+f.date, nil, f.client.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"10:00"}, decode(t, rec)["bookedSlots"])

	code, appt := f.book("10:00", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Time slot not available", appt["error"])
}

func TestBookingSendsNotifications(t *testing.T) {
	f := newBookingFixture(t)
	id := f.mustBook(t, "10:00")

	assert.Eventually(t, func() bool { return len(f.env.mailer.Sent()) == 2 }, time.Second, 10*time.Millisecond)
	recipients := []string{}
	for _, m := range f.env.mailer.Sent() {
		recipients = append(recipients, m.To)
	}
	assert.ElementsMatch(t, []string{"ana@example.com", "rivera@example.com"}, recipients)

	require.Equal(t, http.StatusOK, f.env.do(http.MethodPut, "/api/appointments/"+id+"/confirm", nil, f.therapist.token).Code)
	assert.Eventually(t, func() bool { return len(f.env.mailer.Sent()) == 3 }, time.Second, 10*time.Millisecond)

	// no mail when nothing changed
	require.Equal(t, http.StatusOK, f.env.do(http.MethodPut, "/api/appointments/"+id+"/confirm", nil, f.therapist.token).Code)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.env.mailer.Sent(), 3)
}

func TestTherapistDashboard(t *testing.T) {
	f := newBookingFixture(t)
	first := f.mustBook(t, "10:00")
	f.mustBook(t, "11:00")
	require.Equal(t, http.StatusOK, f.env.do(http.MethodPut, "/api/appointments/"+first+"/complete", nil, f.therapist.token).Code)

	rec := f.env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{"answers": lowAnswers()}, f.client.token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.env.do(http.MethodGet, "/api/therapists/stats", nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["totalAppointments"])
	assert.Equal(t, float64(1), stats["upcomingAppointments"])
	assert.Equal(t, float64(1), stats["completedSessions"])
	assert.Equal(t, float64(1), stats["totalClients"])

	rec = f.env.do(http.MethodGet, "/api/therapists/clients", nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decode(t, rec)["clients"].([]interface{})
	require.Len(t, clients, 1)
	assert.Equal(t, "Ana", clients[0].(map[string]interface{})["name"])

	rec = f.env.do(http.MethodGet, "/api/therapists/clients/assessments", nil, f.therapist.token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["assessments"].([]interface{})
	require.Len(t, list, 1)
	entry := list[0].(map[string]interface{})
	assert.Equal(t, "ana@example.com", entry["client"].(map[string]interface{})["email"])
	assert.Equal(t, "Low", entry["result"].(map[string]interface{})["severity"])
}
