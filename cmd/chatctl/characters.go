package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"guru-chat/internal/config"
	"guru-chat/internal/db"
	"guru-chat/internal/domain"
	"guru-chat/internal/repository"
)

var errCharacterNotFound = errors.New("character not found")

// characterFile es el formato de seed: una lista de personajes con su persona.
type characterFile struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Persona     domain.Persona `json:"persona"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Crea personajes desde un archivo JSON",
	RunE:  runSeed,
}

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Reemplaza la persona de un personaje",
	RunE:  runPersona,
}

func init() {
	seedCmd.Flags().StringP("file", "f", "configs/characters.json", "archivo JSON con la lista de personajes")

	personaCmd.Flags().String("id", "", "id del personaje")
	personaCmd.Flags().StringP("file", "f", "", "archivo JSON con la persona")
	_ = personaCmd.MarkFlagRequired("id")
	_ = personaCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(seedCmd, personaCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	chars, err := loadCharacters(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.NewPgCharacterRepository(pool)
	for _, c := range chars {
		created, err := repo.Create(ctx, domain.Character{
			Name:        c.Name,
			Description: c.Description,
			Persona:     c.Persona,
		})
		if err != nil {
			return fmt.Errorf("create %q: %w", c.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", created.ID, created.Name)
	}
	return nil
}

func runPersona(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetString("id")
	path, _ := cmd.Flags().GetString("file")
	persona, err := loadPersona(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	updated, err := repository.NewPgCharacterRepository(pool).UpdatePersona(ctx, strings.TrimSpace(id), persona)
	if err != nil {
		return fmt.Errorf("update persona: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("%w: %s", errCharacterNotFound, id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "persona updated for %s (%s)\n", updated.Name, updated.ID)
	return nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return pool, nil
}

func loadCharacters(path string) ([]characterFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var chars []characterFile
	if err := json.Unmarshal(raw, &chars); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, c := range chars {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("character %d: name is required", i)
		}
	}
	return chars, nil
}

func loadPersona(path string) (domain.Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var persona domain.Persona
	if err := json.Unmarshal(raw, &persona); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if persona == nil {
		return nil, fmt.Errorf("%s: persona must be a JSON object", path)
	}
	return persona, nil
}
