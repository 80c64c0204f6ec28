package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"student-records/internal/apperror"
	"student-records/internal/client"
	"student-records/internal/student"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

type cli struct {
	server    string
	client    *client.Client
	validator *student.Validator
}

func newRootCmd() *cobra.Command {
	c := &cli{validator: student.NewValidator()}

	server := os.Getenv("STUDENTS_API_URL")
	if server == "" {
		server = defaultServer
	}

	root := &cobra.Command{
		Use:           "studentctl",
		Short:         "Manage student records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.client = client.New(c.server)
		},
	}
	root.PersistentFlags().StringVar(&c.server, "server", server, "API base URL (env STUDENTS_API_URL)")

	root.AddCommand(
		c.listCmd(),
		c.showCmd(),
		c.addCmd(),
		c.editCmd(),
		c.deleteCmd(),
	)
	return root
}

func (c *cli) listCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students, optionally filtered by name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := c.client.List(cmd.Context(), search)
			if err != nil {
				return err
			}
			if len(students) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No students found")
				return nil
			}
			return renderTable(cmd.OutOrStdout(), students)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive name or email fragment")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := c.client.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderTable(cmd.OutOrStdout(), []student.Student{*s})
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var form client.Form
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := form.CreateRequest(c.validator)
			if err != nil {
				return formError(err)
			}
			s, err := c.client.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created student %d\n", s.ID)
			return renderTable(cmd.OutOrStdout(), []student.Student{*s})
		},
	}
	bindFormFlags(cmd, &form)
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var form client.Form
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req, err := form.UpdateRequest(c.validator)
			if err != nil {
				return formError(err)
			}
			s, err := c.client.Update(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated student %d\n", s.ID)
			return renderTable(cmd.OutOrStdout(), []student.Student{*s})
		},
	}
	bindFormFlags(cmd, &form)
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.client.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %d\n", id)
			return nil
		},
	}
}

func bindFormFlags(cmd *cobra.Command, f *client.Form) {
	cmd.Flags().StringVar(&f.Name, "name", "", "full name, letters and spaces")
	cmd.Flags().StringVar(&f.Email, "email", "", "email address")
	cmd.Flags().StringVar(&f.GraduationYear, "year", "", "graduation year")
	cmd.Flags().StringVar(&f.PhoneNumber, "phone", "", "10 digit phone number")
	cmd.Flags().StringVar(&f.GPA, "gpa", "", "GPA between 0 and 4")
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.New("Invalid student ID format")
	}
	return id, nil
}

func formError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message)
	}
	return err
}

func renderTable(w io.Writer, students []student.Student) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tYEAR\tPHONE\tGPA")
	for _, s := range students {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Email, optInt(s.GraduationYear), optString(s.PhoneNumber), optGPA(s.GPA))
	}
	return tw.Flush()
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func optGPA(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
