// Package financials — модель страницы «Финансы» админки.
//
// Страница показывает сводку и список подписок за период и позволяет
// вручную выдать подписку. После успешной выдачи форма очищается,
// а сводка и список перезапрашиваются.
package financials

import (
	"context"
	"time"

	"github.com/shaiso/infra/internal/client"
	"github.com/shaiso/infra/internal/view"
)

// API — вызовы, которые использует страница.
type API interface {
	FinancialSummary(ctx context.Context, r client.Range) (*client.FinancialSummary, error)
	ListSubscriptions(ctx context.Context, f client.SubscriptionFilter) ([]client.Subscription, error)
	CreateSubscription(ctx context.Context, req client.SubscriptionCreateRequest) (*client.Subscription, error)
}

// Page — состояние страницы. Поля Range и Form меняет владелец страницы
// между вызовами; одновременные Submit не поддерживаются.
type Page struct {
	api API
	loc *time.Location

	Range DateRange
	Form  AssignmentForm

	Summary       *view.Loader[*client.FinancialSummary]
	Subscriptions *view.Loader[[]client.Subscription]

	// SubmitError — сообщение последней неудачной выдачи.
	SubmitError string

	// LastCreated — последняя выданная подписка.
	LastCreated *client.Subscription
}

// NewPage создаёт страницу. loc — часовой пояс календарных дат.
func NewPage(api API, loc *time.Location) *Page {
	if loc == nil {
		loc = time.Local
	}
	p := &Page{
		api:  api,
		loc:  loc,
		Form: NewAssignmentForm(),
	}

	p.Summary = view.NewLoader(func(ctx context.Context) (*client.FinancialSummary, error) {
		r, err := p.Range.Bounds(p.loc)
		if err != nil {
			return nil, err
		}
		return p.api.FinancialSummary(ctx, r)
	})
	p.Subscriptions = view.NewLoader(func(ctx context.Context) ([]client.Subscription, error) {
		r, err := p.Range.Bounds(p.loc)
		if err != nil {
			return nil, err
		}
		return p.api.ListSubscriptions(ctx, client.SubscriptionFilter{Range: r})
	})

	return p
}

// Refresh перезапрашивает сводку и список за текущий период.
func (p *Page) Refresh(ctx context.Context) {
	p.Summary.Load(ctx)
	p.Subscriptions.Load(ctx)
}

// Submit отправляет форму выдачи подписки.
//
// Ровно один POST на вызов; при ошибке валидации запрос не отправляется.
// При успехе очищает tg_id, amount_rub и expires_at и вызывает Refresh.
func (p *Page) Submit(ctx context.Context) error {
	req, err := p.Form.Request(p.loc)
	if err != nil {
		p.SubmitError = client.Message(err)
		return err
	}

	sub, err := p.api.CreateSubscription(ctx, req)
	if err != nil {
		p.SubmitError = client.Message(err)
		return err
	}

	p.SubmitError = ""
	p.LastCreated = sub
	p.Form.ClearAfterSubmit()
	p.Refresh(ctx)
	return nil
}

// Close отвязывает страницу: ответы, пришедшие позже, не применяются.
func (p *Page) Close() {
	p.Summary.Close()
	p.Subscriptions.Close()
}
