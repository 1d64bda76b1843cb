package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"tasklog-service/logging"
	"tasklog-service/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationClient posts assignment notifications to the notifications
// service. Calls run behind a circuit breaker and failures are logged only;
// a down notifications service never fails a task operation.
type NotificationClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
}

func NewNotificationClient(httpClient *http.Client, breaker *gobreaker.CircuitBreaker, baseURL string) *NotificationClient {
	return &NotificationClient{
		httpClient: httpClient,
		breaker:    breaker,
		baseURL:    baseURL,
	}
}

// TaskAssigned notifies a user that a task was assigned to them.
func (c *NotificationClient) TaskAssigned(task *models.Task, assigneeID primitive.ObjectID) {
	if c.baseURL == "" {
		return
	}

	payload := map[string]string{
		"userId":  assigneeID.Hex(),
		"taskId":  task.ID.Hex(),
		"message": fmt.Sprintf("You have been assigned the task: %s", task.Title),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_MARSHAL_FAILED, Description: Failed to marshal notification payload: %v", err)
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Post(c.baseURL+"/api/notifications", "application/json", bytes.NewBuffer(body))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send assignment notification for task %s: %v", task.ID.Hex(), err)
		return
	}

	logging.Logger.Infof("Event ID: NOTIFICATION_SENT, Description: Assignment notification sent for task %s to user %s", task.ID.Hex(), assigneeID.Hex())
}
