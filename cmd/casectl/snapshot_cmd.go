package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/acompanha/acompanha/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSnapshotCommand(cc *cliConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Back up and restore the document via MinIO",
	}
	cmd.AddCommand(
		newSnapshotTakeCommand(cc),
		newSnapshotListCommand(cc),
		newSnapshotRestoreCommand(cc),
	)
	return cmd
}

func (cc *cliConfig) objects(cmd *cobra.Command) (*storage.MinIOStorage, error) {
	return storage.NewMinIOStorage(cmd.Context(), cc.cfg.MinIO)
}

func newSnapshotTakeCommand(cc *cliConfig) *cobra.Command {
	var urlTTL time.Duration
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Upload a consistent copy of the document",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cc.store()
			if err != nil {
				return err
			}
			objs, err := cc.objects(cmd)
			if err != nil {
				return err
			}
			res, err := storage.TakeSnapshot(cmd.Context(), s, objs, time.Now(), urlTTL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "uploaded %s/%s (%s, %d users, %d cards)\n",
				objs.Bucket(), res.Key, humanize.Bytes(uint64(res.Size)), res.Users, res.Cards)
			if res.URL != "" {
				fmt.Fprintf(out, "download (valid %s): %s\n", urlTTL, res.URL)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&urlTTL, "url-ttl", time.Hour, "lifetime of the presigned download URL (0 disables)")
	return cmd
}

func newSnapshotListCommand(cc *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			objs, err := cc.objects(cmd)
			if err != nil {
				return err
			}
			infos, err := objs.ListKeys(cmd.Context(), storage.SnapshotPrefix)
			if err != nil {
				return err
			}
			sort.Slice(infos, func(i, j int) bool { return infos[i].Key > infos[j].Key })
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tUPLOADED")
			for _, o := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Key, humanize.Bytes(uint64(o.Size)), humanize.Time(o.LastModified))
			}
			return tw.Flush()
		},
	}
}

func newSnapshotRestoreCommand(cc *cliConfig) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the whole document with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("restore overwrites every user and card; pass --yes to confirm")
			}
			s, err := cc.store()
			if err != nil {
				return err
			}
			objs, err := cc.objects(cmd)
			if err != nil {
				return err
			}
			doc, err := storage.RestoreSnapshot(cmd.Context(), objs, s, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %s: %d users, %d cards\n", args[0], len(doc.Users), len(doc.Cards))
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm overwriting the current document")
	return cmd
}
