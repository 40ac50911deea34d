package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/itchub/edu-dashboard/backend"
	"github.com/itchub/edu-dashboard/internal/utils"
	"github.com/itchub/edu-dashboard/session"
	"github.com/itchub/edu-dashboard/users"
)

func dispatch(ctx context.Context, sess *session.Session, b backend.Backend, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		return cmdLogin(ctx, sess, rest)
	case "logout":
		sess.Logout(ctx)
		fmt.Println("Logged out.")
		return nil
	case "me":
		return cmdMe(sess)
	case "profile":
		return cmdProfile(ctx, sess, b)
	case "users":
		return cmdUsers(ctx, sess, b, rest)
	case "add-user":
		return cmdAddUser(ctx, sess, b, rest)
	case "edit-user":
		return cmdEditUser(ctx, sess, b, rest)
	case "set-active":
		return cmdSetActive(ctx, sess, b, rest)
	case "delete-user":
		return cmdDeleteUser(ctx, sess, b, rest)
	case "passwd":
		return cmdPasswd(ctx, b, rest)
	case "stats":
		return cmdStats(ctx, b)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Println("Commands:")
	fmt.Println("  login -u <username|phone> -p <password>")
	fmt.Println("  logout")
	fmt.Println("  me")
	fmt.Println("  profile")
	fmt.Println("  users [-limit N] [-offset N]")
	fmt.Println("  add-user -username .. -surname .. -lastname .. -password .. [flags]")
	fmt.Println("  edit-user -id <id> [flags]")
	fmt.Println("  set-active -id <id> -active <true|false>")
	fmt.Println("  delete-user -id <id>")
	fmt.Println("  passwd -id <id> -new <password> -confirm <password>")
	fmt.Println("  stats")
}

func cmdLogin(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	identifier := fs.String("u", "", "username or phone number")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result := sess.Login(ctx, *identifier, *password)
	if !result.Success {
		return fmt.Errorf("login failed: %s", result.Error)
	}
	user := sess.CurrentUser()
	fmt.Printf("Welcome, %s (%s)\n", user.FullName(), user.Role)
	return nil
}

func cmdMe(sess *session.Session) error {
	user := sess.CurrentUser()
	if user == nil {
		return session.ErrNoSession
	}
	printUser(*user)
	return nil
}

func cmdProfile(ctx context.Context, sess *session.Session, b backend.Backend) error {
	user := sess.CurrentUser()
	if user == nil {
		return session.ErrNoSession
	}

	// Refresh the cached list so the leaderboard has something to rank against
	if page, err := b.ListUsers(ctx, 100, 0); err == nil {
		sess.SetUsers(page.Results)
	}

	printUser(*user)
	if user.IsStudent() {
		rank, total := sess.Rank(user.ID)
		if rank > 0 {
			fmt.Printf("Leaderboard: #%d of %d students\n", rank, total)
		}
	}
	return nil
}

func cmdUsers(ctx context.Context, sess *session.Session, b backend.Backend, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "page size")
	offset := fs.Int("offset", 0, "page offset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := b.ListUsers(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	sess.SetUsers(page.Results)

	fmt.Printf("%-14s %-16s %-22s %-14s %-14s %6s %s\n",
		"ID", "USERNAME", "NAME", "PHONE", "LEVEL", "COINS", "ACTIVE")
	for _, user := range page.Results {
		fmt.Printf("%-14s %-16s %-22s %-14s %-14s %6d %v\n",
			user.ID, user.Username, user.FullName(), user.PhoneNumber,
			user.Level, user.Coins, user.Active)
	}
	fmt.Printf("%d of %d users\n", len(page.Results), page.Count)
	return nil
}

func cmdAddUser(ctx context.Context, sess *session.Session, b backend.Backend, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	newUser := backend.NewUser{}
	level := fs.String("level", "", "beginner, intermediate or advanced")
	photo := fs.String("photo", "", "path to an avatar image")
	fs.StringVar(&newUser.Username, "username", "", "login name")
	fs.StringVar(&newUser.Surname, "surname", "", "first name")
	fs.StringVar(&newUser.Lastname, "lastname", "", "last name")
	fs.StringVar(&newUser.MemberID, "member-id", "", "badge ID (e.g. ITC003)")
	fs.StringVar(&newUser.PhoneNumber, "phone", "", "phone number")
	fs.StringVar(&newUser.TgUsername, "tg", "", "telegram username")
	fs.StringVar(&newUser.Course, "course", "", "course label")
	fs.StringVar(&newUser.Direction, "direction", "", "study direction")
	fs.StringVar(&newUser.Password, "password", "", "initial password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	newUser.Level = users.Level(*level)

	if newUser.MemberID != "" {
		if err := users.ValidateMemberID(newUser.MemberID); err != nil {
			return err
		}
	}
	if err := users.ValidatePasswordStrength(newUser.Password); err != nil {
		return err
	}
	if *photo != "" {
		content, err := os.ReadFile(*photo)
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}
		newUser.Photo = &backend.PhotoUpload{Filename: *photo, Content: content}
	}

	created, err := b.CreateUser(ctx, newUser)
	if err != nil {
		return err
	}
	sess.AddUser(*created)
	fmt.Printf("Created %s (%s)\n", created.Username, created.ID)
	return nil
}

func cmdEditUser(ctx context.Context, sess *session.Session, b backend.Backend, args []string) error {
	fs := flag.NewFlagSet("edit-user", flag.ContinueOnError)
	id := fs.String("id", "", "user ID")
	surname := fs.String("surname", "", "first name")
	lastname := fs.String("lastname", "", "last name")
	phone := fs.String("phone", "", "phone number")
	tg := fs.String("tg", "", "telegram username")
	level := fs.String("level", "", "proficiency level")
	course := fs.String("course", "", "course label")
	direction := fs.String("direction", "", "study direction")
	coins := fs.Int("coins", -1, "coin balance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	patch := backend.UserPatch{}
	setIfGiven := func(dest **string, value *string) {
		if *value != "" {
			*dest = value
		}
	}
	setIfGiven(&patch.Surname, surname)
	setIfGiven(&patch.Lastname, lastname)
	setIfGiven(&patch.PhoneNumber, phone)
	setIfGiven(&patch.TgUsername, tg)
	setIfGiven(&patch.Course, course)
	setIfGiven(&patch.Direction, direction)
	if *level != "" {
		patch.Level = utils.Ptr(users.Level(*level))
	}
	if *coins >= 0 {
		patch.Coins = coins
	}
	if patch.Partial.IsZero() {
		return fmt.Errorf("nothing to update")
	}

	updated, err := b.UpdateUser(ctx, *id, patch)
	if err != nil {
		return err
	}
	sess.UpdateUser(*id, patch.Partial)
	fmt.Printf("Updated %s\n", updated.Username)
	return nil
}

func cmdSetActive(ctx context.Context, sess *session.Session, b backend.Backend, args []string) error {
	fs := flag.NewFlagSet("set-active", flag.ContinueOnError)
	id := fs.String("id", "", "user ID")
	active := fs.Bool("active", true, "activate or deactivate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	patch := backend.UserPatch{Partial: users.Partial{Active: active}}
	if _, err := b.UpdateUser(ctx, *id, patch); err != nil {
		return err
	}
	sess.UpdateUser(*id, patch.Partial)
	if *active {
		fmt.Println("User activated.")
	} else {
		fmt.Println("User deactivated.")
	}
	return nil
}

func cmdDeleteUser(ctx context.Context, sess *session.Session, b backend.Backend, args []string) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	id := fs.String("id", "", "user ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	if err := b.DeleteUser(ctx, *id); err != nil {
		return err
	}
	sess.DeleteUser(*id)
	fmt.Println("User deleted.")
	return nil
}

func cmdPasswd(ctx context.Context, b backend.Backend, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	id := fs.String("id", "", "user ID")
	newPassword := fs.String("new", "", "new password")
	confirm := fs.String("confirm", "", "confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	if err := b.ChangePassword(ctx, *id, *newPassword, *confirm); err != nil {
		return err
	}
	fmt.Println("Password changed.")
	return nil
}

func cmdStats(ctx context.Context, b backend.Backend) error {
	stats, err := b.Statistics(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Users:           %d\n", stats.TotalUsers)
	fmt.Printf("Students:        %d\n", stats.TotalStudents)
	fmt.Printf("Active students: %d\n", stats.ActiveStudents)
	fmt.Printf("Total coins:     %d\n", stats.TotalCoins)
	return nil
}

func printUser(user users.User) {
	fmt.Printf("%s (%s)\n", user.FullName(), user.Username)
	fmt.Printf("  Role:      %s\n", user.Role)
	if user.MemberID != "" {
		fmt.Printf("  Member ID: %s\n", user.MemberID)
	}
	fmt.Printf("  Phone:     %s\n", user.PhoneNumber)
	if user.TgUsername != "" {
		fmt.Printf("  Telegram:  @%s\n", strings.TrimPrefix(user.TgUsername, "@"))
	}
	if user.IsStudent() {
		fmt.Printf("  Level:     %s\n", user.Level)
		fmt.Printf("  Course:    %s\n", user.Course)
		fmt.Printf("  Direction: %s\n", user.Direction)
		fmt.Printf("  Coins:     %d\n", user.Coins)
	}
	if user.QRCode != "" {
		fmt.Printf("  QR badge:  %s\n", user.QRCode)
	}
}
