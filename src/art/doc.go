/*
Package art is responsible for getting cover art for albums or artist images
over the internet.

Three sources are supported and each of them follows the same general
protocol: resolve the requested name to remote identifiers, verify that what
came back really is the requested item, resolve a concrete image URL and
finally download the bytes. Every remote operation goes through the shared
transport queue so the whole program observes one concurrency ceiling and one
request rate.

The sources:

  - MusicBrainz + Cover Art Archive for album covers. A release search
    provides candidate release IDs and the first verified one which has a
    front image in the archive wins.
  - fanart.tv for artist images. The artist name is first resolved to a
    MusicBrainz artist ID which fanart.tv uses as its primary key.
  - Last.fm for album covers via the album.getinfo call. A single-result
    source, there is nothing to iterate over.

The following APIs are used to achieve this package's objective:

  - MusicBrainz API: https://musicbrainz.org/doc/MusicBrainz_API
  - Cover Art Archive: https://musicbrainz.org/doc/Cover_Art_Archive/
  - fanart.tv API: https://fanarttv.docs.apiary.io/
  - Last.fm API: https://www.last.fm/api
*/
package art
