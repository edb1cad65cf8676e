package genai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const videoModel = "veo-3.0-generate-001"

type videoSubmitRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`
}

type videoOperationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// VideoOperation is the state of one in-flight render job.
type VideoOperation struct {
	Handle    string
	Done      bool
	ResultURI string
}

// SubmitVideoJob starts a long-running render and returns the operation
// handle to poll.
func (c *Client) SubmitVideoJob(ctx context.Context, prompt, aspectRatio, resolution string) (string, error) {
	req := videoSubmitRequest{
		Instances:  []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{AspectRatio: aspectRatio, Resolution: resolution},
	}

	var resp videoOperationResponse
	if err := c.postJSON(ctx, "/models/"+videoModel+":predictLongRunning", req, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("video job submission returned no operation handle")
	}
	return resp.Name, nil
}

// GetVideoOperation re-queries the status of a render job.
func (c *Client) GetVideoOperation(ctx context.Context, handle string) (*VideoOperation, error) {
	var resp videoOperationResponse
	if err := c.getJSON(ctx, "/"+strings.TrimPrefix(handle, "/"), &resp); err != nil {
		return nil, err
	}

	op := &VideoOperation{Handle: handle, Done: resp.Done}
	samples := resp.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) > 0 {
		op.ResultURI = samples[0].Video.URI
	}
	return op, nil
}

// FetchVideo downloads the finished render. The result URI requires the API
// key appended as a query parameter.
func (c *Client) FetchVideo(ctx context.Context, resultURI string) ([]byte, error) {
	u, err := url.Parse(resultURI)
	if err != nil {
		return nil, fmt.Errorf("invalid video result URI: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video download failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("video download failed: %w", err)
	}
	return blob, nil
}
