package iceio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// signer implements the optional "s3.signer = tabular" sign-request
// hook: outbound object-store requests are POSTed to
// {uri}/v1/aws/s3/sign with a bearer token, and the response headers
// are merged back into the original request instead of signing it
// locally with static credentials.
type signer struct {
	endpoint string
	token    string
	client   *http.Client
}

func newSigner(catalogURI, token string) *signer {
	return &signer{endpoint: catalogURI + "/v1/aws/s3/sign", token: token, client: http.DefaultClient}
}

type signRequestBody struct {
	Method  string            `json:"method"`
	Region  string            `json:"region"`
	URI     string            `json:"uri"`
	Headers map[string]string `json:"headers"`
}

type signResponseBody struct {
	URI     string            `json:"uri"`
	Headers map[string]string `json:"headers"`
}

// middleware installs the signer as a Finalize-step smithy middleware
// so it runs in place of the SDK's own SigV4 signer.
func (s *signer) middleware(stack *middleware.Stack) error {
	return stack.Finalize.Add(middleware.FinalizeMiddlewareFunc("TabularSigner", func(
		ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler,
	) (middleware.FinalizeOutput, middleware.Metadata, error) {
		req, ok := in.Request.(*smithyhttp.Request)
		if !ok {
			return next.HandleFinalize(ctx, in)
		}
		if err := s.sign(ctx, req); err != nil {
			return middleware.FinalizeOutput{}, middleware.Metadata{}, fmt.Errorf("iceio: sign request: %w", err)
		}
		return next.HandleFinalize(ctx, in)
	}), middleware.Before)
}

func (s *signer) sign(ctx context.Context, req *smithyhttp.Request) error {
	headers := map[string]string{}
	for k := range req.Header {
		headers[k] = req.Header.Get(k)
	}
	body := signRequestBody{
		Method:  req.Method,
		URI:     req.URL.String(),
		Headers: headers,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sign endpoint returned status %d", resp.StatusCode)
	}
	var out signResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	for k, v := range out.Headers {
		req.Header.Set(k, v)
	}
	return nil
}
