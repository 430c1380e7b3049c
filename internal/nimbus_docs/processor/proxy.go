package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"nimbus-docs/internal/nimbus_docs/model"
)

// ErrNonJSONResponse 上游返回的不是 JSON
var ErrNonJSONResponse = errors.New("upstream response is not JSON")

// Recorder 保存调用记录（可选）
type Recorder interface {
	SaveRun(ctx context.Context, rec *model.RunRecord) error
}

type Processor struct {
	Log        *zap.Logger
	HTTPClient *http.Client
	Recorder   Recorder // nil 表示不记录
}

// NewProcessor 创建代理处理器
// httpClient 为 nil 时使用不带超时的默认客户端
func NewProcessor(log *zap.Logger, httpClient *http.Client, recorder Recorder) *Processor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Processor{
		Log:        log,
		HTTPClient: httpClient,
		Recorder:   recorder,
	}
}

// Result 成功代理的结果
type Result struct {
	URL            string
	UpstreamStatus int
	Body           []byte // 重新序列化后的上游 JSON
}

// Run 发起一次出站调用并返回上游的 JSON 响应
// 上游状态码不做判断：只要响应体是合法 JSON 就视为成功
func (p *Processor) Run(ctx context.Context, r *Request) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, r)

	rec := &model.RunRecord{
		ID:         uuid.NewString(),
		Endpoint:   r.Endpoint,
		Method:     r.Method,
		URL:        res.URL,
		Status:     http.StatusOK,
		DurationMs: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	rec.UpstreamStatus = res.UpstreamStatus
	if err != nil {
		rec.Status = http.StatusInternalServerError
		rec.Error = err.Error()
		p.Log.Error("Error making API call",
			zap.String("url", res.URL),
			zap.String("method", r.Method),
			zap.Error(err),
		)
	}
	p.record(ctx, rec)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Processor) run(ctx context.Context, r *Request) (*Result, error) {
	req, u, err := buildHTTPRequest(ctx, r)
	res := &Result{URL: u}
	if err != nil {
		return res, err
	}

	p.Log.Info("Proxying API call",
		zap.String("url", u),
		zap.String("method", req.Method),
		zap.Bool("withBody", req.Body != nil),
	)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return res, fmt.Errorf("send request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			p.Log.Warn("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)
	res.UpstreamStatus = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, fmt.Errorf("read response body: %w", err)
	}

	p.Log.Debug("Fetched API response",
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Int("bodySize", len(body)),
	)

	if !gjson.ValidBytes(body) {
		return res, fmt.Errorf("status %d: %w", resp.StatusCode, ErrNonJSONResponse)
	}
	res.Body = canonicalJSON(gjson.ParseBytes(body))
	return res, nil
}

// record 写入调用记录，失败只记日志，不影响代理结果
func (p *Processor) record(ctx context.Context, rec *model.RunRecord) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.SaveRun(context.WithoutCancel(ctx), rec); err != nil {
		p.Log.Warn("Failed to save run record",
			zap.String("url", rec.URL),
			zap.Error(err),
		)
	}
}
