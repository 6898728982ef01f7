package helpers

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"
)

const collageDownloadConcurrency = 8

// CollageFromUrls creates a JPEG collage out of the given image urls, placed row-major.
// Empty strings and images that fail to download leave an empty tile.
// imageUrls        : a slice with all image URLs
// width            : the width of the result collage image
// height           : the height of the result collage image
// tileWidth        : the width of each tile image
// tileHeight       : the height of each tile image
// backgroundColour : the background colour as a hex string
func CollageFromUrls(ctx context.Context, imageUrls []string, width, height, tileWidth, tileHeight int, backgroundColourText string) (collageBytes []byte, err error) {
	tiles := make([]image.Image, len(imageUrls))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(collageDownloadConcurrency)
	for i, imageUrl := range imageUrls {
		if imageUrl == "" {
			continue
		}
		i, imageUrl := i, imageUrl
		group.Go(func() error {
			imageData, err := NetGetContext(groupCtx, imageUrl, DEFAULT_UA, 15*time.Second, nil)
			if err != nil {
				RelaxLog(err)
				return nil
			}
			tileImage, _, err := image.Decode(bytes.NewReader(imageData))
			if err != nil {
				RelaxLog(err)
				return nil
			}
			tiles[i] = resize.Resize(uint(tileWidth), uint(tileHeight), tileImage, resize.Lanczos3)
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return ComposeCollage(tiles, width, height, tileWidth, tileHeight, backgroundColourText)
}

// ComposeCollage draws the tiles row-major onto a background, nil tiles stay empty
func ComposeCollage(tiles []image.Image, width, height, tileWidth, tileHeight int, backgroundColourText string) ([]byte, error) {
	backgroundColour, err := colorful.Hex(backgroundColourText)
	if err != nil {
		backgroundColour = colorful.Color{}
	}

	collageImage := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(collageImage, collageImage.Bounds(), image.NewUniform(backgroundColour), image.Point{}, draw.Src)

	var posX, posY int
	for _, tile := range tiles {
		if posX > 0 && posX+tileWidth > width {
			posY += tileHeight
			posX = 0
		}
		if tile != nil {
			draw.Draw(
				collageImage,
				image.Rect(posX, posY, posX+tileWidth, posY+tileHeight),
				tile,
				tile.Bounds().Min,
				draw.Src,
			)
		}
		posX += tileWidth
	}

	var buffer bytes.Buffer
	err = jpeg.Encode(&buffer, collageImage, &jpeg.Options{Quality: 95})
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
