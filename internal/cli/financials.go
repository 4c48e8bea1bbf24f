package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/infra/internal/client"
	"github.com/shaiso/infra/internal/domain"
	"github.com/shaiso/infra/internal/financials"
	"github.com/shaiso/infra/internal/view"
)

// NewFinancialsCmd создаёт группу команд страницы «Финансы».
// Даты — календарные (YYYY-MM-DD) в локальном часовом поясе.
func NewFinancialsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "financials",
		Short: "Revenue summary and subscriptions",
	}

	cmd.AddCommand(
		newFinancialsSummaryCmd(app),
		newFinancialsSubscriptionsCmd(app),
		newFinancialsAssignCmd(app),
		newFinancialsRevokeCmd(app),
	)

	return cmd
}

func registerRange(cmd *cobra.Command, r *financials.DateRange) {
	cmd.Flags().StringVar(&r.From, "from", "", "Period start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&r.To, "to", "", "Period end date, inclusive (YYYY-MM-DD)")
}

// loaded возвращает данные Result или ошибку с сообщением страницы.
func loaded[T any](res view.Result[T]) (T, error) {
	if res.Phase != view.Loaded {
		var zero T
		return zero, errors.New(res.Message)
	}
	return res.Data, nil
}

func newFinancialsSummaryCmd(app *App) *cobra.Command {
	var r financials.DateRange

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show revenue summary for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}

			page := financials.NewPage(c, nil)
			defer page.Close()
			page.Range = r

			s, err := loaded(page.Summary.Load(cmd.Context()))
			if err != nil {
				return err
			}

			out := app.Output()
			if app.JSON {
				out.JSON(s)
				return nil
			}

			out.Fields([][2]string{
				{"Выручка", fmtRub(s.RevenueRub)},
				{"Платежи", strconv.FormatInt(s.PaymentsCount, 10)},
				{"Новые подписки", strconv.FormatInt(s.NewSubscriptionsCount, 10)},
				{"Активные подписки", strconv.FormatInt(s.ActiveSubscriptionsCount, 10)},
			}, s)
			fmt.Fprintln(app.Stdout)

			rows := make([][]string, 0, len(domain.PlanTiers))
			for _, tier := range domain.PlanTiers {
				t := s.ByTier[tier]
				rows = append(rows, []string{string(tier), fmtRub(t.RevenueRub), strconv.FormatInt(t.Count, 10)})
			}
			out.Table([]string{"PLAN", "REVENUE", "COUNT"}, rows)
			return nil
		},
	}

	registerRange(cmd, &r)

	return cmd
}

var subscriptionHeaders = []string{"ID", "USER", "PLAN", "STATUS", "AMOUNT", "STARTED", "EXPIRES", "CREATED"}

func subscriptionRow(s client.Subscription) []string {
	return []string{
		fmtID(s.ID), fmtID(s.UserID), string(s.PlanTier), string(s.Status), fmtRub(s.AmountRub),
		fmtTime(s.StartedAt), fmtTimePtr(s.ExpiresAt), fmtTime(s.CreatedAt),
	}
}

func newFinancialsSubscriptionsCmd(app *App) *cobra.Command {
	var (
		r            financials.DateRange
		plan, status string
		userID, tgID int64
	)

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List subscriptions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			bounds, err := r.Bounds(nil)
			if err != nil {
				return err
			}
			filter := client.SubscriptionFilter{Range: bounds, PlanTier: plan, Status: status}
			if cmd.Flags().Changed("user-id") {
				filter.UserID = &userID
			}
			if cmd.Flags().Changed("tg-id") {
				filter.TgID = &tgID
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			subs, err := c.ListSubscriptions(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rows := make([][]string, len(subs))
			for i, s := range subs {
				rows[i] = subscriptionRow(s)
			}
			app.Output().Print(subscriptionHeaders, rows, subs)
			return nil
		},
	}

	registerRange(cmd, &r)
	cmd.Flags().StringVar(&plan, "plan", "", "Filter by plan tier (free, pro, corp)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active, expired, cancelled)")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "Filter by user ID")
	cmd.Flags().Int64Var(&tgID, "tg-id", 0, "Filter by Telegram ID")

	return cmd
}

func newFinancialsAssignCmd(app *App) *cobra.Command {
	form := financials.NewAssignmentForm()

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Grant a subscription to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}

			page := financials.NewPage(c, nil)
			defer page.Close()
			page.Form = form

			if err := page.Submit(cmd.Context()); err != nil {
				return errors.New(page.SubmitError)
			}

			sub := page.LastCreated
			out := app.Output()
			out.Success(fmt.Sprintf("Подписка выдана: %d", sub.ID))
			out.Print(subscriptionHeaders, [][]string{subscriptionRow(*sub)}, sub)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.TgID, "tg-id", "", "Telegram ID (required)")
	cmd.Flags().StringVar(&form.PlanTier, "plan", form.PlanTier, "Plan tier (free, pro, corp)")
	cmd.Flags().StringVar(&form.Status, "status", form.Status, "Subscription status")
	cmd.Flags().StringVar(&form.AmountRub, "amount", "", "Amount in RUB")
	cmd.Flags().StringVar(&form.ExpiresAt, "expires", "", "Expiry date (YYYY-MM-DD, inclusive) or RFC3339")
	cmd.MarkFlagRequired("tg-id")

	return cmd
}

func newFinancialsRevokeCmd(app *App) *cobra.Command {
	var userID, tgID int64

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Downgrade a user to free and cancel active subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.RevokeRequest
			if cmd.Flags().Changed("user-id") {
				req.UserID = &userID
			}
			if cmd.Flags().Changed("tg-id") {
				req.TgID = &tgID
			}
			if req.UserID == nil && req.TgID == nil {
				return errors.New("укажите --user-id или --tg-id")
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := c.RevokeSubscription(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := app.Output()
			out.Success(resp.Message)
			out.Fields([][2]string{
				{"Пользователь", fmtID(resp.User.ID)},
				{"Telegram ID", strconv.FormatInt(resp.User.TgID, 10)},
				{"План", string(resp.User.PlanTier)},
				{"Отменено подписок", strconv.FormatInt(resp.Cancelled, 10)},
			}, resp)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "User ID")
	cmd.Flags().Int64Var(&tgID, "tg-id", 0, "Telegram ID")

	return cmd
}
