package erp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kolo/xmlrpc"
)

// Client represents an ERP XML-RPC client (Odoo-compatible endpoint)
type Client struct {
	URL        string
	Database   string
	Username   string
	Password   string
	Uid        int
	CommonURL  string
	ObjectURL  string
	HttpClient *http.Client
}

// NewClient creates a new ERP client
func NewClient(url, db, username, password string) *Client {
	return &Client{
		URL:        url,
		Database:   db,
		Username:   username,
		Password:   password,
		CommonURL:  fmt.Sprintf("%s/xmlrpc/2/common", url),
		ObjectURL:  fmt.Sprintf("%s/xmlrpc/2/object", url),
		HttpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Authenticate authenticates with the ERP and returns the user ID
func (c *Client) Authenticate() (int, error) {
	client, err := xmlrpc.NewClient(c.CommonURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{c.Database, c.Username, c.Password, make([]interface{}, 0)}
	var uid int
	if err := client.Call("authenticate", args, &uid); err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}

	c.Uid = uid
	return uid, nil
}

// Create creates a new record
func (c *Client) Create(model string, values map[string]interface{}) (int64, error) {
	client, err := xmlrpc.NewClient(c.ObjectURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{
		c.Database,
		c.Uid,
		c.Password,
		model,
		"create",
		[]interface{}{values},
	}

	var id int64
	if err := client.Call("execute_kw", args, &id); err != nil {
		return 0, fmt.Errorf("failed to create record: %w", err)
	}

	return id, nil
}

// Write updates existing record(s)
func (c *Client) Write(model string, ids []int64, values map[string]interface{}) error {
	client, err := xmlrpc.NewClient(c.ObjectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{
		c.Database,
		c.Uid,
		c.Password,
		model,
		"write",
		[]interface{}{ids, values},
	}

	var success bool
	if err := client.Call("execute_kw", args, &success); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if !success {
		return fmt.Errorf("write operation returned false")
	}

	return nil
}

// Search performs a generic search operation and returns IDs
func (c *Client) Search(model string, domain []interface{}, limit, offset int) ([]int64, error) {
	client, err := xmlrpc.NewClient(c.ObjectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{
		c.Database,
		c.Uid,
		c.Password,
		model,
		"search",
		[]interface{}{domain},
		map[string]interface{}{
			"limit":  limit,
			"offset": offset,
		},
	}

	var ids []int64
	if err := client.Call("execute_kw", args, &ids); err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}

	return ids, nil
}
