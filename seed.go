package main

import (
	"context"
	"fmt"

	"github.com/isdelr/sample-app/internal/models"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	seedFirstNames = []string{"Ada", "Ben", "Cleo", "Dev", "Esme", "Finn", "Greta", "Hugo", "Iris", "Jonas"}
	seedLastNames  = []string{"Abbott", "Baker", "Chen", "Dalton", "Evans", "Fischer", "Garcia", "Hale", "Ito", "Jensen"}
	seedSentences  = []string{
		"Just shipped a new feature.",
		"Coffee first, code second.",
		"Reading about distributed systems tonight.",
		"The tests are green and so is the tea.",
		"Refactoring is a form of gardening.",
		"Who else is going to the meetup on Thursday?",
	}
)

// seedPassword is the password of every sample user.
const seedPassword = "foobar"

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var userCount, postsPerUser int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with sample users, microposts and relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			s := seeder{
				users:         services.NewUserService(db),
				microposts:    services.NewMicropostService(db),
				relationships: services.NewRelationshipService(db),
			}
			if err := s.run(cmd.Context(), userCount, postsPerUser); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users; sign in as example@railstutorial.org / %s\n", userCount, seedPassword)
			return nil
		},
	}
	cmd.Flags().IntVar(&userCount, "users", 100, "Number of users to create")
	cmd.Flags().IntVar(&postsPerUser, "posts", 50, "Microposts for each of the first six users")
	return cmd
}

type seeder struct {
	users         services.UserServiceProvider
	microposts    services.MicropostServiceProvider
	relationships services.RelationshipServiceProvider
}

// run creates an admin "Example User" plus userCount-1 others, gives the
// first six users microposts, and has the first user follow users 2-50 and be
// followed by users 3-40.
func (s seeder) run(ctx context.Context, userCount, postsPerUser int) error {
	if userCount < 1 {
		return fmt.Errorf("need at least one user, got %d", userCount)
	}

	created := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		form := models.UserForm{
			Name:                 seedName(i),
			Email:                seedEmail(i),
			Password:             seedPassword,
			PasswordConfirmation: seedPassword,
		}
		user, err := s.users.CreateUser(ctx, form)
		if err != nil {
			return fmt.Errorf("create user %s: %w", form.Email, err)
		}
		created = append(created, user)
	}
	if err := s.users.SetAdmin(ctx, created[0].ID, true); err != nil {
		return err
	}
	log.Info().Int("count", len(created)).Msg("Seeded users")

	for i := 0; i < postsPerUser; i++ {
		for _, user := range created[:min(6, len(created))] {
			if _, err := s.microposts.CreateMicropost(ctx, user.ID, seedSentences[i%len(seedSentences)]); err != nil {
				return err
			}
		}
	}

	first := created[0]
	for _, followed := range created[1:min(51, len(created))] {
		if _, err := s.relationships.Follow(ctx, first.ID, followed.ID); err != nil {
			return err
		}
	}
	for _, follower := range created[min(3, len(created)):min(41, len(created))] {
		if _, err := s.relationships.Follow(ctx, follower.ID, first.ID); err != nil {
			return err
		}
	}
	log.Info().Msg("Seeded microposts and relationships")
	return nil
}

func seedName(i int) string {
	if i == 0 {
		return "Example User"
	}
	return seedFirstNames[i%len(seedFirstNames)] + " " + seedLastNames[(i/len(seedFirstNames))%len(seedLastNames)]
}

func seedEmail(i int) string {
	if i == 0 {
		return "example@railstutorial.org"
	}
	return fmt.Sprintf("example-%d@railstutorial.org", i+1)
}

