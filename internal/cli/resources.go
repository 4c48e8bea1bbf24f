package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/infra/internal/client"
	"github.com/shaiso/infra/internal/domain"
)

// parseIDArg разбирает числовой ID из аргумента команды.
func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный ID: %s", arg)
	}
	return id, nil
}

func newOverviewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}

			o, err := c.Overview(cmd.Context())
			if err != nil {
				return err
			}

			app.Output().Fields([][2]string{
				{"Пользователи", strconv.FormatInt(o.Users, 10)},
				{"Темы", strconv.FormatInt(o.Topics, 10)},
				{"Источники", strconv.FormatInt(o.Sources, 10)},
				{"Открытые алерты", strconv.FormatInt(o.AlertsOpen, 10)},
			}, o)
			return nil
		},
	}
}

// --- Sources ---

var sourceHeaders = []string{"ID", "NAME", "TYPE", "URL", "TRUST", "CREATED"}

func sourceRow(s client.Source) []string {
	return []string{fmtID(s.ID), s.Name, s.SourceType, fmtStr(s.URL), strconv.Itoa(s.TrustManual), fmtTime(s.CreatedAt)}
}

// NewSourceCmd создаёт группу команд для источников.
func NewSourceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage content sources",
	}

	cmd.AddCommand(
		newSourceListCmd(app),
		newSourceCreateCmd(app),
		newSourceUpdateCmd(app),
		newSourceDeleteCmd(app),
		newSourceStateCmd(app),
	)

	return cmd
}

func newSourceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}

			sources, err := c.ListSources(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(sources))
			for i, s := range sources {
				rows[i] = sourceRow(s)
			}
			app.Output().Print(sourceHeaders, rows, sources)
			return nil
		},
	}
}

// sourceFlags — флаги create/update. Для update учитываются только
// явно заданные.
type sourceFlags struct {
	name, sourceType, url, regex string
	trust                        int
	keywords                     []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Source name")
	cmd.Flags().StringVar(&f.sourceType, "type", "", "Source type (content, jobs)")
	cmd.Flags().StringVar(&f.url, "url", "", "Feed URL")
	cmd.Flags().IntVar(&f.trust, "trust", 0, "Manual trust score")
	cmd.Flags().StringSliceVar(&f.keywords, "keyword", nil, "Job keyword (repeatable)")
	cmd.Flags().StringVar(&f.regex, "regex", "", "Job title regex")
}

func newSourceCreateCmd(app *App) *cobra.Command {
	var f sourceFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a source",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			req := client.SourceCreate{
				Name:        f.name,
				SourceType:  f.sourceType,
				JobKeywords: f.keywords,
			}
			if changed("url") {
				req.URL = &f.url
			}
			if changed("trust") {
				req.TrustManual = &f.trust
			}
			if changed("regex") {
				req.JobRegex = &f.regex
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.CreateSource(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := app.Output()
			out.Success(fmt.Sprintf("Источник создан: %d", s.ID))
			out.Print(sourceHeaders, [][]string{sourceRow(*s)}, s)
			return nil
		},
	}

	f.register(cmd)
	cmd.MarkFlagRequired("name")

	return cmd
}

func newSourceUpdateCmd(app *App) *cobra.Command {
	var f sourceFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			var req client.SourceUpdate
			if changed("name") {
				req.Name = &f.name
			}
			if changed("type") {
				req.SourceType = &f.sourceType
			}
			if changed("url") {
				req.URL = &f.url
			}
			if changed("trust") {
				req.TrustManual = &f.trust
			}
			if changed("keyword") {
				req.JobKeywords = f.keywords
			}
			if changed("regex") {
				req.JobRegex = &f.regex
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.UpdateSource(cmd.Context(), id, req)
			if err != nil {
				return err
			}

			app.Output().Print(sourceHeaders, [][]string{sourceRow(*s)}, s)
			return nil
		},
	}

	f.register(cmd)

	return cmd
}

func newSourceDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteSource(cmd.Context(), id); err != nil {
				return err
			}

			app.Output().Success(fmt.Sprintf("Источник удалён: %d", id))
			return nil
		},
	}
}

func newSourceStateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "state ID",
		Short: "Show source ingestion state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			st, err := c.SourceState(cmd.Context(), id)
			if err != nil {
				return err
			}

			// Состояние произвольное, в таблицу не раскладывается
			app.Output().JSON(st)
			return nil
		},
	}
}

// --- Topics ---

var topicHeaders = []string{"ID", "NAME", "DESCRIPTION", "CREATED"}

func topicRow(t client.Topic) []string {
	return []string{fmtID(t.ID), t.Name, fmtStr(t.Description), fmtTime(t.CreatedAt)}
}

// NewTopicCmd создаёт группу команд для тем.
func NewTopicCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage topics",
	}

	cmd.AddCommand(
		newTopicListCmd(app),
		newTopicCreateCmd(app),
		newTopicUpdateCmd(app),
		newTopicDeleteCmd(app),
	)

	return cmd
}

func newTopicListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}

			topics, err := c.ListTopics(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(topics))
			for i, t := range topics {
				rows[i] = topicRow(t)
			}
			app.Output().Print(topicHeaders, rows, topics)
			return nil
		},
	}
}

func newTopicCreateCmd(app *App) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.TopicCreate{Name: name}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			t, err := c.CreateTopic(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := app.Output()
			out.Success(fmt.Sprintf("Тема создана: %d", t.ID))
			out.Print(topicHeaders, [][]string{topicRow(*t)}, t)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Topic name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Topic description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newTopicUpdateCmd(app *App) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			var req client.TopicUpdate
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			t, err := c.UpdateTopic(cmd.Context(), id, req)
			if err != nil {
				return err
			}

			app.Output().Print(topicHeaders, [][]string{topicRow(*t)}, t)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Topic name")
	cmd.Flags().StringVar(&description, "description", "", "Topic description")

	return cmd
}

func newTopicDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteTopic(cmd.Context(), id); err != nil {
				return err
			}

			app.Output().Success(fmt.Sprintf("Тема удалена: %d", id))
			return nil
		},
	}
}

// --- Alerts ---

var alertHeaders = []string{"ID", "SEVERITY", "STATUS", "TITLE", "ACK", "MUTED", "MUTED UNTIL", "CREATED"}

func alertRow(a client.Alert, now time.Time) []string {
	return []string{
		fmtID(a.ID), a.Severity, string(a.Status), a.Title, yesNo(a.Acknowledged),
		yesNo(a.IsMuted(now)), fmtTimePtr(a.MutedUntil), fmtTime(a.CreatedAt),
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// NewAlertCmd создаёт группу команд для алертов.
func NewAlertCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage system alerts",
	}

	var minutes int
	mute := newAlertActionCmd(app, "mute", "Mute an alert", func(cmd *cobra.Command, c *client.Client, id int64) (*client.Alert, error) {
		return c.MuteAlert(cmd.Context(), id, minutes)
	})
	mute.Flags().IntVar(&minutes, "minutes", 0, "Mute duration in minutes (server default if 0)")

	cmd.AddCommand(
		newAlertListCmd(app),
		newAlertActionCmd(app, "ack", "Acknowledge an alert", func(cmd *cobra.Command, c *client.Client, id int64) (*client.Alert, error) {
			return c.AckAlert(cmd.Context(), id)
		}),
		mute,
		newAlertActionCmd(app, "resolve", "Resolve an alert", func(cmd *cobra.Command, c *client.Client, id int64) (*client.Alert, error) {
			return c.ResolveAlert(cmd.Context(), id)
		}),
	)

	return cmd
}

func newAlertListCmd(app *App) *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}

			alerts, err := c.ListAlerts(cmd.Context())
			if err != nil {
				return err
			}

			shown := make([]client.Alert, 0, len(alerts))
			for _, a := range alerts {
				if openOnly && a.Status != domain.AlertStatusOpen {
					continue
				}
				shown = append(shown, a)
			}

			now := time.Now()
			rows := make([][]string, len(shown))
			for i, a := range shown {
				rows[i] = alertRow(a, now)
			}
			app.Output().Print(alertHeaders, rows, shown)
			return nil
		},
	}

	cmd.Flags().BoolVar(&openOnly, "open", false, "Only open alerts")

	return cmd
}

type alertAction func(cmd *cobra.Command, c *client.Client, id int64) (*client.Alert, error)

func newAlertActionCmd(app *App, use, short string, action alertAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			c, err := app.Authed(cmd.Context())
			if err != nil {
				return err
			}
			a, err := action(cmd, c, id)
			if err != nil {
				return err
			}

			out := app.Output()
			out.Success(fmt.Sprintf("Алерт %d: %s", a.ID, strings.ToUpper(use)))
			out.Print(alertHeaders, [][]string{alertRow(*a, time.Now())}, a)
			return nil
		},
	}
}
