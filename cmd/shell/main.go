// Command shell hosts the screen controller as a line-oriented client: it
// restores the cached session, runs the splash timer, and maps typed commands
// onto controller actions. It talks to the same backing stores as the gateway.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"carteirinha/internal/app"
	"carteirinha/internal/photo"
	"carteirinha/internal/platform/config"
	"carteirinha/internal/platform/logger"
	platformredis "carteirinha/internal/platform/redis"
	"carteirinha/internal/session"
	"carteirinha/internal/student/service"
	"carteirinha/internal/student/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	photos, err := photo.NewFSStore(cfg.Photo.Dir, cfg.Photo.BaseURL)
	if err != nil {
		log.Error("photo store init failed", "error", err.Error())
		os.Exit(1)
	}

	students := service.New(store.NewPostgres(db), photos, log, nil)
	sessions := session.FromConfig(cfg, redisClient, log)
	ctrl := app.NewController(students, sessions, log)

	ctx := context.Background()
	ctrl.Start(ctx)
	if ctrl.Screen() == app.ScreenSplash {
		time.AfterFunc(app.SplashDuration, ctrl.SplashElapsed)
	}

	fmt.Println("commands: cpf <cpf> | register <name>|<rg>|<birth>|<course>|<photo url> | go <screen> | edit | back | logout | quit")
	repl(ctx, ctrl)
}

func repl(ctx context.Context, ctrl *app.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt(ctrl)
		if !scanner.Scan() {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")

		var err error
		switch cmd {
		case "":
		case "cpf":
			err = ctrl.SubmitCPF(ctx, arg)
		case "register":
			var form app.RegistrationForm
			form, err = parseForm(arg)
			if err == nil {
				err = ctrl.SubmitRegistration(ctx, form)
			}
		case "go":
			err = ctrl.NavigateTo(app.Screen(arg))
		case "edit":
			err = ctrl.EditProfile()
		case "back":
			ctrl.Back()
		case "logout":
			err = ctrl.Logout(ctx)
			if err == nil {
				time.AfterFunc(app.SplashDuration, ctrl.SplashElapsed)
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
		if err != nil {
			fmt.Println("error:", err)
		}
	}
}

func parseForm(arg string) (app.RegistrationForm, error) {
	parts := strings.Split(arg, "|")
	if len(parts) != 5 {
		return app.RegistrationForm{}, fmt.Errorf("register wants 5 fields separated by |, got %d", len(parts))
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return app.RegistrationForm{
		Name:      parts[0],
		RG:        parts[1],
		BirthDate: parts[2],
		Course:    parts[3],
		PhotoURL:  parts[4],
	}, nil
}

func prompt(ctrl *app.Controller) {
	if st, ok := ctrl.Current(); ok {
		fmt.Printf("[%s %s] ", ctrl.Screen(), st.Name)
		return
	}
	fmt.Printf("[%s] ", ctrl.Screen())
}
