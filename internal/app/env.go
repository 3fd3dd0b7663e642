package app

import (
    "errors"
    "fmt"
    "os"
    "strings"

    "github.com/joho/godotenv"
)

// LoadEnvFiles loads dotenv files into the process environment. Variables
// already present in the environment win over file values; among files,
// the first one to set a key wins. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
    for _, p := range paths {
        if strings.TrimSpace(p) == "" {
            continue
        }
        if err := loadEnvFile(p); err != nil {
            if errors.Is(err, os.ErrNotExist) {
                continue
            }
            return fmt.Errorf("env file %s: %w", p, err)
        }
    }
    return nil
}

func loadEnvFile(path string) error {
    vals, err := godotenv.Read(path)
    if err != nil {
        return err
    }
    for key, val := range vals {
        if _, set := os.LookupEnv(key); set {
            continue
        }
        if err := os.Setenv(key, val); err != nil {
            return err
        }
    }
    return nil
}
